//go:build windows

package main

import (
	"os/exec"
)

func configureDaemonProc(cmd *exec.Cmd) {
	// Windows doesn't use Setsid; a plain started process is detached
	// enough for our use case.
}
