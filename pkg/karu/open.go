package karu

import (
	"os/exec"
	"runtime"
)

var startCommand = func(cmd *exec.Cmd) error {
	return cmd.Start()
}

// openWithDefaultApp asks the desktop environment to open path. The
// child process is detached and its outcome is not tracked.
func openWithDefaultApp(path string) error {
	switch runtime.GOOS {
	case "darwin":
		return startCommand(exec.Command("open", path))
	case "windows":
		return startCommand(exec.Command("rundll32", "url.dll,FileProtocolHandler", path))
	default:
		return startCommand(exec.Command("xdg-open", path))
	}
}
