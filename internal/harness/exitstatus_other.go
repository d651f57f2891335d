//go:build !unix

package harness

import "os"

// terminationSignal always reports false: only unix exposes the signal
// that ended a child.
func terminationSignal(state *os.ProcessState) (name string, core bool, ok bool) {
	return "", false, false
}
