package files

import (
	"os"
	"path"
	"strings"
	"time"
)

type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindSymlink
)

func (k Kind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "file"
	}
}

// Entry is an immutable snapshot of one directory member.
// Identity is the full path; listings are replaced wholesale on reload.
type Entry struct {
	Path       string
	Name       string
	Kind       Kind
	Size       int64
	ModifiedAt time.Time
	Hidden     bool
}

func (e Entry) IsDir() bool {
	return e.Kind == KindDirectory
}

func (e Entry) DirPath() string {
	return path.Dir(e.Path)
}

// NewEntry builds an Entry for a child of dirPath from an os.DirEntry.
// Stat failures are tolerated: size and mod time stay zero.
func NewEntry(dirPath string, de os.DirEntry) Entry {
	name := de.Name()
	entry := Entry{
		Path:   path.Join(dirPath, name),
		Name:   name,
		Hidden: strings.HasPrefix(name, "."),
	}
	switch {
	case de.Type()&os.ModeSymlink != 0:
		entry.Kind = KindSymlink
	case de.IsDir():
		entry.Kind = KindDirectory
	default:
		entry.Kind = KindFile
	}
	if info, err := de.Info(); err == nil && info != nil {
		entry.Size = info.Size()
		entry.ModifiedAt = info.ModTime()
	}
	return entry
}
