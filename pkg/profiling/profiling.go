package profiling

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"
)

var osCreate = os.Create
var pprofStartCPUProfile = pprof.StartCPUProfile
var pprofStopCPUProfile = pprof.StopCPUProfile
var pprofWriteHeapProfile = pprof.WriteHeapProfile
var memProfilingInterval = 30 * time.Second

// DoCPUProfiling starts CPU profiling into the given file and returns
// a function that stops it. The returned function is never nil.
func DoCPUProfiling(filePath string) (stop func()) {
	f, err := osCreate(filePath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "could not create CPU profile: %v\n", err)
		return func() {}
	}
	if err = pprofStartCPUProfile(f); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "could not start CPU profile: %v\n", err)
		_ = f.Close()
		return func() {}
	}
	return func() {
		pprofStopCPUProfile()
		_ = f.Close()
	}
}

// DoMemProfiling periodically writes heap profiles to the given file
// and returns a function that triggers a write on demand.
func DoMemProfiling(filePath string) (write func()) {
	write = func() {
		writeHeapProfile(filePath)
	}
	go func() {
		for {
			time.Sleep(memProfilingInterval)
			writeHeapProfile(filePath)
		}
	}()
	return write
}

func writeHeapProfile(filePath string) {
	f, err := osCreate(filePath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "could not create memory profile: %v\n", err)
		return
	}
	defer func() {
		_ = f.Close()
	}()
	if err = pprofWriteHeapProfile(io.Writer(f)); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "could not write memory profile: %v\n", err)
	}
}
