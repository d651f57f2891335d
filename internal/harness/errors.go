package harness

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid run request. It is always
// returned before any unit is created.
type ConfigurationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s (%v): %s", e.Field, e.Value, e.Message)
}

// SpawnError reports that a unit could not be created.
type SpawnError struct {
	Ordinal int
	Model   Model
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("spawn %s unit %d: %v", e.Model, e.Ordinal, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// WaitError reports that a unit's terminal state could not be observed.
type WaitError struct {
	Ordinal int
	PID     int
	Err     error
}

func (e *WaitError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("wait for unit %d (pid %d): %v", e.Ordinal, e.PID, e.Err)
	}
	return fmt.Sprintf("wait for unit %d: %v", e.Ordinal, e.Err)
}

func (e *WaitError) Unwrap() error {
	return e.Err
}

// TerminationError reports a unit that died instead of returning: it was
// killed by a signal or exited with a status outside the unit protocol.
type TerminationError struct {
	Ordinal  int
	PID      int
	Signal   string
	ExitCode int
	Core     bool

	// Stderr holds the last line the unit wrote to stderr, if any.
	Stderr string
}

func (e *TerminationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unit %d", e.Ordinal)
	if e.PID > 0 {
		fmt.Fprintf(&b, " (pid %d)", e.PID)
	}
	if e.Signal != "" {
		fmt.Fprintf(&b, " killed by %s", e.Signal)
		if e.Core {
			b.WriteString(" (core dumped)")
		}
	} else {
		fmt.Fprintf(&b, " exited with status %d", e.ExitCode)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&b, ": %s", e.Stderr)
	}
	return b.String()
}
