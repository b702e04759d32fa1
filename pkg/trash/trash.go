package trash

import "errors"

// ErrUnavailable reports that no trash facility exists for the path's
// filesystem. Callers must treat it as distinct from other failures:
// permanent deletion is never a silent fallback.
var ErrUnavailable = errors.New("trash is not available")

// Bin moves filesystem objects to a recoverable trash location.
type Bin interface {
	Trash(path string) error
}
