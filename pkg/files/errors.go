package files

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

type ErrorKind int

const (
	ErrOther ErrorKind = iota
	ErrNotFound
	ErrPermission
	ErrExists
	ErrCrossDevice
	ErrConflict
	ErrValidation
	ErrTrashUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNotFound:
		return "not found"
	case ErrPermission:
		return "permission denied"
	case ErrExists:
		return "already exists"
	case ErrCrossDevice:
		return "cross-device"
	case ErrConflict:
		return "name conflict"
	case ErrValidation:
		return "invalid input"
	case ErrTrashUnavailable:
		return "trash unavailable"
	default:
		return "i/o error"
	}
}

// Error carries the path that failed together with a closed kind
// so callers can branch without inspecting OS error strings.
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// KindOf extracts the ErrorKind from err, ErrOther when unknown.
func KindOf(err error) ErrorKind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ErrOther
}

// WrapOSError maps an os/syscall error onto the closed taxonomy.
func WrapOSError(path string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrOther
	switch {
	case os.IsNotExist(err):
		kind = ErrNotFound
	case os.IsPermission(err):
		kind = ErrPermission
	case os.IsExist(err):
		kind = ErrExists
	case errors.Is(err, syscall.EXDEV):
		kind = ErrCrossDevice
	}
	return &Error{Kind: kind, Path: path, Err: err}
}
