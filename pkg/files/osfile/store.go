package osfile

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/karufm/karu/pkg/files"
	"github.com/karufm/karu/pkg/fsutils"
)

var osReadDir = os.ReadDir
var osMkdir = os.Mkdir
var osRename = os.Rename
var osRemove = os.Remove

var _ files.Store = (*Store)(nil)

// Store is the local filesystem backend.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) ReadDir(ctx context.Context, dirPath string) ([]files.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	children, err := osReadDir(dirPath)
	if err != nil {
		return nil, files.WrapOSError(dirPath, err)
	}
	entries := make([]files.Entry, len(children))
	for i, child := range children {
		entries[i] = files.NewEntry(dirPath, child)
	}
	return entries, nil
}

func (s *Store) Stat(path string) (files.Entry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return files.Entry{}, files.WrapOSError(path, err)
	}
	entry := files.Entry{
		Path:       path,
		Name:       filepath.Base(path),
		Size:       info.Size(),
		ModifiedAt: info.ModTime(),
		Hidden:     len(info.Name()) > 0 && info.Name()[0] == '.',
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		entry.Kind = files.KindSymlink
	case info.IsDir():
		entry.Kind = files.KindDirectory
	default:
		entry.Kind = files.KindFile
	}
	return entry, nil
}

func (s *Store) ReadBytes(path string, max int) ([]byte, error) {
	data, err := fsutils.ReadFileData(path, max)
	if err != nil {
		return nil, files.WrapOSError(path, err)
	}
	return data, nil
}

func (s *Store) CreateFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return files.WrapOSError(path, err)
	}
	return f.Close()
}

func (s *Store) CreateDir(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := osMkdir(path, 0755); err != nil {
		return files.WrapOSError(path, err)
	}
	return nil
}

func (s *Store) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := osRename(oldPath, newPath); err != nil {
		return files.WrapOSError(oldPath, err)
	}
	return nil
}

// CopyTree deep-copies src to dst with an explicit work stack instead
// of recursion, failing fast on the first unrecoverable error. Already
// copied siblings stay in place.
func (s *Store) CopyTree(ctx context.Context, src, dst string, onCopied func(path string)) error {
	type copyItem struct {
		src, dst string
	}
	stack := []copyItem{{src: src, dst: dst}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Lstat(item.src)
		if err != nil {
			return files.WrapOSError(item.src, err)
		}
		switch {
		case info.Mode()&os.ModeSymlink != 0:
			if err = copySymlink(item.src, item.dst); err != nil {
				return err
			}
		case info.IsDir():
			if err = osMkdir(item.dst, info.Mode().Perm()); err != nil {
				return files.WrapOSError(item.dst, err)
			}
			children, err := osReadDir(item.src)
			if err != nil {
				return files.WrapOSError(item.src, err)
			}
			for i := len(children) - 1; i >= 0; i-- {
				name := children[i].Name()
				stack = append(stack, copyItem{
					src: filepath.Join(item.src, name),
					dst: filepath.Join(item.dst, name),
				})
			}
		default:
			if err = copyFile(item.src, item.dst, info.Mode().Perm()); err != nil {
				return err
			}
		}
		if onCopied != nil {
			onCopied(item.src)
		}
	}
	return nil
}

// RemoveTree permanently removes path and everything below it, leaves
// first, using an explicit traversal.
func (s *Store) RemoveTree(ctx context.Context, path string) error {
	var ordered []string
	stack := []string{path}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := ctx.Err(); err != nil {
			return err
		}
		ordered = append(ordered, current)
		info, err := os.Lstat(current)
		if err != nil {
			return files.WrapOSError(current, err)
		}
		if info.IsDir() {
			children, err := osReadDir(current)
			if err != nil {
				return files.WrapOSError(current, err)
			}
			for _, child := range children {
				stack = append(stack, filepath.Join(current, child.Name()))
			}
		}
	}
	for i := len(ordered) - 1; i >= 0; i-- {
		if err := osRemove(ordered[i]); err != nil {
			return files.WrapOSError(ordered[i], err)
		}
	}
	return nil
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return files.WrapOSError(src, err)
	}
	defer func() {
		_ = in.Close()
	}()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return files.WrapOSError(dst, err)
	}
	if _, err = io.Copy(out, in); err != nil {
		_ = out.Close()
		return files.WrapOSError(dst, err)
	}
	if err = out.Close(); err != nil {
		return files.WrapOSError(dst, err)
	}
	return nil
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return files.WrapOSError(src, err)
	}
	if err = os.Symlink(target, dst); err != nil {
		return files.WrapOSError(dst, err)
	}
	return nil
}
