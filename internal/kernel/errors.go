package kernel

import "fmt"

// Op names the kernel step that failed.
type Op string

const (
	OpAlloc  Op = "alloc"
	OpOpen   Op = "open"
	OpWrite  Op = "write"
	OpSync   Op = "sync"
	OpSeek   Op = "seek"
	OpRead   Op = "read"
	OpVerify Op = "verify"
	OpRemove Op = "remove"
)

// Error is a failure reported by a running kernel. It never escapes the
// unit that produced it; the harness turns it into that unit's outcome.
type Error struct {
	Kind Kind
	Op   Op
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s kernel", e.Kind)
	if e.Op != "" {
		msg += ": " + string(e.Op)
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
