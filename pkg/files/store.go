package files

import "context"

//go:generate mockgen -source=store.go -destination=mock_store.go -package=files

// Store is the filesystem collaborator of the navigation engine.
// Implementations must report failures through the files.Error taxonomy.
type Store interface {
	// ReadDir lists the direct children of dirPath, unsorted and unfiltered.
	ReadDir(ctx context.Context, dirPath string) ([]Entry, error)

	// Stat resolves a single path to an Entry.
	Stat(path string) (Entry, error)

	// ReadBytes reads file content bounded by max (see fsutils.ReadFileData).
	ReadBytes(path string, max int) ([]byte, error)

	CreateFile(ctx context.Context, path string) error
	CreateDir(ctx context.Context, path string) error
	Rename(ctx context.Context, oldPath, newPath string) error

	// CopyTree deep-copies src to dst, fail-fast, reporting each completed
	// path through onCopied when non-nil.
	CopyTree(ctx context.Context, src, dst string, onCopied func(path string)) error

	// RemoveTree permanently removes path and everything below it.
	RemoveTree(ctx context.Context, path string) error
}
