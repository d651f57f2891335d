// Package outcome defines the terminal result of a unit and folds many of
// them into one verdict.
package outcome

import (
	"sort"
	"time"
)

// Cause tags why a unit did not succeed.
type Cause string

const (
	// CauseNone marks a successful unit.
	CauseNone Cause = ""

	// CauseSpawnFailed means the unit could not be created.
	CauseSpawnFailed Cause = "spawn_failed"

	// CauseWaitFailed means the harness could not observe the unit's
	// terminal state.
	CauseWaitFailed Cause = "wait_failed"

	// CauseAbnormalTermination means the unit died through a fault or a
	// signal instead of returning.
	CauseAbnormalTermination Cause = "abnormal_termination"

	// CauseKernelReportedError means the unit ran to completion but its
	// kernel reported an allocation or I/O failure.
	CauseKernelReportedError Cause = "kernel_reported_error"
)

// Causes lists every failure cause in report order.
var Causes = []Cause{
	CauseSpawnFailed,
	CauseWaitFailed,
	CauseAbnormalTermination,
	CauseKernelReportedError,
}

func (c Cause) String() string {
	if c == CauseNone {
		return "success"
	}
	return string(c)
}

// Outcome is the terminal result of one unit.
type Outcome struct {
	Ordinal  int           `json:"ordinal"`
	Cause    Cause         `json:"cause,omitempty"`
	Error    string        `json:"error,omitempty"`
	Value    uint64        `json:"value,omitempty"`
	Detail   string        `json:"detail,omitempty"`
	PID      int           `json:"pid,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Success reports whether the unit finished without any failure.
func (o Outcome) Success() bool {
	return o.Cause == CauseNone
}

// Verdict is the single success/failure result of a harness run.
type Verdict bool

const (
	Success Verdict = true
	Failure Verdict = false
)

func (v Verdict) String() string {
	if v {
		return "success"
	}
	return "failure"
}

// ExitCode maps the verdict to a process exit status.
func (v Verdict) ExitCode() int {
	if v {
		return 0
	}
	return 1
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Aggregate folds outcomes into a verdict: Failure if any outcome failed,
// Success otherwise. The fold is a logical AND, so the result never
// depends on the order outcomes were collected in.
func Aggregate(outcomes []Outcome) Verdict {
	verdict := Success
	for _, o := range outcomes {
		verdict = verdict && Verdict(o.Success())
	}
	return verdict
}

// Counts summarises a set of outcomes by cause.
type Counts struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	ByCause   map[Cause]int `json:"byCause,omitempty"`
}

// Tally counts outcomes per cause.
func Tally(outcomes []Outcome) Counts {
	c := Counts{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Success() {
			c.Succeeded++
			continue
		}
		c.Failed++
		if c.ByCause == nil {
			c.ByCause = make(map[Cause]int)
		}
		c.ByCause[o.Cause]++
	}
	return c
}

// SortByOrdinal orders outcomes by ordinal in place. Completion order is
// arbitrary, reports are not.
func SortByOrdinal(outcomes []Outcome) {
	sort.SliceStable(outcomes, func(i, j int) bool {
		return outcomes[i].Ordinal < outcomes[j].Ordinal
	})
}
