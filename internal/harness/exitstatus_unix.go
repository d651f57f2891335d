//go:build unix

package harness

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// terminationSignal reports the signal that killed a process, if any.
func terminationSignal(state *os.ProcessState) (name string, core bool, ok bool) {
	ws, isWait := state.Sys().(syscall.WaitStatus)
	if !isWait || !ws.Signaled() {
		return "", false, false
	}

	name = unix.SignalName(ws.Signal())
	if name == "" {
		name = ws.Signal().String()
	}
	return name, ws.CoreDump(), true
}
