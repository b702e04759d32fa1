package profiling

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// restoreCPUSeams resets the package seams touched by the CPU tests.
// Not parallel-safe: the seams are package globals.
func restoreCPUSeams(t *testing.T) {
	t.Helper()
	origOsCreate := osCreate
	origStart := pprofStartCPUProfile
	t.Cleanup(func() {
		osCreate = origOsCreate
		pprofStartCPUProfile = origStart
	})
}

func TestDoCPUProfiling(t *testing.T) {
	restoreCPUSeams(t)
	profilePath := filepath.Join(t.TempDir(), "karu-cpu.prof")

	osCreate = os.Create
	closeFunc := DoCPUProfiling(profilePath)
	if closeFunc == nil {
		t.Fatal("expected closeFunc to be not nil")
	}
	closeFunc()

	if _, err := os.Stat(profilePath); os.IsNotExist(err) {
		t.Errorf("expected profile file to be created")
	}
}

func TestDoCPUProfiling_ErrorOsCreate(t *testing.T) {
	restoreCPUSeams(t)

	osCreate = func(name string) (*os.File, error) {
		return nil, errors.New("mock error")
	}
	closeFunc := DoCPUProfiling(filepath.Join(t.TempDir(), "unwritable.prof"))
	if closeFunc == nil {
		t.Fatal("expected closeFunc to be not nil even on error (returns empty func)")
	}
	closeFunc()
}

func TestDoCPUProfiling_ErrorPprofStartCPUProfile(t *testing.T) {
	restoreCPUSeams(t)
	profilePath := filepath.Join(t.TempDir(), "karu-cpu-err.prof")

	osCreate = os.Create
	pprofStartCPUProfile = func(w io.Writer) error {
		return errors.New("mock pprof error")
	}

	closeFunc := DoCPUProfiling(profilePath)
	if closeFunc == nil {
		t.Fatal("expected closeFunc to be not nil")
	}
	closeFunc()
}
