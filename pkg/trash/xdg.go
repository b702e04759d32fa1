package trash

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/karufm/karu/pkg/files/osfile"
)

var osUserHomeDir = os.UserHomeDir
var timeNow = time.Now

// XDGBin implements Bin per the freedesktop.org Trash specification:
// the trashed object goes to $XDG_DATA_HOME/Trash/files and a .trashinfo
// record with the original path goes to Trash/info.
type XDGBin struct {
	root string
}

func NewXDGBin() *XDGBin {
	return &XDGBin{}
}

func (b *XDGBin) Trash(path string) error {
	root, err := b.trashRoot()
	if err != nil {
		return err
	}
	filesDir := filepath.Join(root, "files")
	infoDir := filepath.Join(root, "info")
	for _, dir := range []string{filesDir, infoDir} {
		if err = os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	name := uniqueName(filesDir, infoDir, filepath.Base(absPath))

	infoPath := filepath.Join(infoDir, name+".trashinfo")
	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		absPath, timeNow().Format("2006-01-02T15:04:05"))
	if err = os.WriteFile(infoPath, []byte(info), 0600); err != nil {
		return err
	}

	target := filepath.Join(filesDir, name)
	if err = os.Rename(absPath, target); err != nil {
		if !errors.Is(err, syscall.EXDEV) {
			_ = os.Remove(infoPath)
			return err
		}
		// Trash lives on another filesystem: copy, then drop the source.
		store := osfile.NewStore()
		ctx := context.Background()
		if err = store.CopyTree(ctx, absPath, target, nil); err != nil {
			_ = store.RemoveTree(ctx, target)
			_ = os.Remove(infoPath)
			return err
		}
		if err = store.RemoveTree(ctx, absPath); err != nil {
			return err
		}
	}
	return nil
}

func (b *XDGBin) trashRoot() (string, error) {
	if b.root != "" {
		return b.root, nil
	}
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, "Trash"), nil
	}
	home, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// uniqueName picks a name free in both Trash/files and Trash/info,
// suffixing .1, .2, ... on collision.
func uniqueName(filesDir, infoDir, base string) string {
	name := base
	for i := 1; ; i++ {
		_, filesErr := os.Lstat(filepath.Join(filesDir, name))
		_, infoErr := os.Lstat(filepath.Join(infoDir, name+".trashinfo"))
		if os.IsNotExist(filesErr) && os.IsNotExist(infoErr) {
			return name
		}
		name = base + "." + strconv.Itoa(i)
	}
}
