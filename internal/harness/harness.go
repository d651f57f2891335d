// Package harness runs N units of one workload kernel concurrently under
// an execution model and collects one outcome per unit.
//
// A run proceeds in three steps:
//
//   - the plan is validated; a bad plan is rejected before any unit exists
//   - units are created in ordinal order, each handed to its own waiter
//     goroutine as soon as it is created
//   - the harness blocks until every created unit is terminal and folds
//     the outcomes into a single verdict
//
// If creating unit k fails, the harness records spawn_failed for k, does
// not attempt k+1 or later, and still waits for units 0..k-1. Running
// units are never cancelled and have no timeout.
package harness

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/contend/internal/kernel"
	"github.com/wesleyorama2/contend/internal/metrics"
	"github.com/wesleyorama2/contend/internal/outcome"
)

// Harness creates, waits for and classifies units.
type Harness struct {
	spawner  Spawner
	logger   *slog.Logger
	recorder *metrics.Recorder
	observer func(outcome.Outcome)
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the logger for spawn and exit events.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// WithRecorder records unit metrics into r instead of a fresh recorder per
// run.
func WithRecorder(r *metrics.Recorder) Option {
	return func(h *Harness) {
		h.recorder = r
	}
}

// WithObserver registers fn to be called with every outcome as soon as it
// is known. fn is called from waiter goroutines and must be safe for
// concurrent use.
func WithObserver(fn func(outcome.Outcome)) Option {
	return func(h *Harness) {
		h.observer = fn
	}
}

// New creates a harness that creates units with spawner.
func New(spawner Spawner, opts ...Option) *Harness {
	h := &Harness{spawner: spawner}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Result is the complete record of one harness run.
type Result struct {
	RunID  string        `json:"runId"`
	Model  Model         `json:"model"`
	Kind   kernel.Kind   `json:"kind"`
	Params kernel.Params `json:"params"`

	// Units is the number of units requested; Created is how many were
	// actually started.
	Units   int `json:"units"`
	Created int `json:"created"`

	// Outcomes holds one entry per created unit plus the spawn failure, if
	// any, ordered by ordinal.
	Outcomes []outcome.Outcome `json:"outcomes"`
	Counts   outcome.Counts    `json:"counts"`
	Verdict  outcome.Verdict   `json:"verdict"`

	StartTime time.Time         `json:"startTime"`
	EndTime   time.Time         `json:"endTime"`
	Duration  time.Duration     `json:"duration"`
	Metrics   *metrics.Snapshot `json:"metrics,omitempty"`
}

// Dropped returns the number of units that were never attempted because an
// earlier spawn failed.
func (r *Result) Dropped() int {
	n := r.Units - r.Created
	if r.Counts.ByCause[outcome.CauseSpawnFailed] > 0 {
		n--
	}
	return n
}

// Run executes plan and blocks until every created unit is terminal.
//
// The returned error is non-nil only for configuration errors, in which
// case no unit was created. Spawn, wait and kernel failures are reported
// as outcomes and make the verdict a failure.
func (h *Harness) Run(plan Plan) (*Result, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	recorder := h.recorder
	if recorder == nil {
		recorder = metrics.NewRecorder()
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Model:     h.spawner.Model(),
		Kind:      plan.Kind,
		Params:    plan.Params,
		Units:     plan.Units,
		StartTime: time.Now(),
	}

	logger := h.logger.With("run_id", result.RunID, "model", result.Model, "kind", result.Kind)
	logger.Info("starting run", "units", plan.Units, "iterations", plan.Params.Iterations)

	// Slot i is written only by the waiter of unit i, or by the spawn
	// loop for the unit that failed to spawn.
	outcomes := make([]outcome.Outcome, plan.Units)
	var wg sync.WaitGroup

	for i := 0; i < plan.Units; i++ {
		unit := plan.Unit(i)
		start := time.Now()

		handle, err := h.spawner.Spawn(unit)
		if err != nil {
			o := outcome.Outcome{
				Ordinal: i,
				Cause:   outcome.CauseSpawnFailed,
				Error:   err.Error(),
			}
			outcomes[i] = o
			recorder.SpawnFailed()
			h.observe(o)
			logger.Error("unit spawn failed; not creating further units",
				"ordinal", i, "error", err, "dropped", plan.Units-i-1)
			break
		}

		result.Created++
		recorder.UnitStarted()

		// Until its waiter reports, the slot counts as a failed wait.
		outcomes[i] = outcome.Outcome{Ordinal: i, Cause: outcome.CauseWaitFailed, Error: "unit was not waited for"}

		wg.Add(1)
		go func(i int, handle Handle, start time.Time) {
			defer wg.Done()

			res, err := handle.Wait()
			o := classify(i, res, err)
			o.Duration = time.Since(start)
			if p, ok := handle.(pidHandle); ok {
				o.PID = p.PID()
			}

			outcomes[i] = o
			recorder.UnitFinished(o, res.Bytes)
			h.observe(o)

			if o.Success() {
				logger.Debug("unit finished", "ordinal", i, "pid", o.PID, "duration", o.Duration, "value", o.Detail)
			} else {
				logger.Warn("unit failed", "ordinal", i, "pid", o.PID, "cause", o.Cause, "duration", o.Duration, "error", o.Error)
			}
		}(i, handle, start)
	}

	wg.Wait()

	accounted := result.Created
	if accounted < plan.Units && outcomes[accounted].Cause == outcome.CauseSpawnFailed {
		accounted++
	}
	result.Outcomes = outcomes[:accounted]
	result.Counts = outcome.Tally(result.Outcomes)
	result.Verdict = outcome.Aggregate(result.Outcomes)
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	result.Metrics = recorder.Snapshot()

	logger.Info("run finished",
		"verdict", result.Verdict,
		"created", result.Created,
		"failed", result.Counts.Failed,
		"duration", result.Duration)

	return result, nil
}

func (h *Harness) observe(o outcome.Outcome) {
	if h.observer != nil {
		h.observer(o)
	}
}

// classify maps what a handle returned onto an outcome.
func classify(ordinal int, res kernel.Result, err error) outcome.Outcome {
	o := outcome.Outcome{Ordinal: ordinal, Value: res.Value}
	if err == nil {
		o.Detail = res.String()
		return o
	}

	o.Error = err.Error()

	var term *TerminationError
	var wait *WaitError
	switch {
	case errors.As(err, &term):
		o.Cause = outcome.CauseAbnormalTermination
	case errors.As(err, &wait):
		o.Cause = outcome.CauseWaitFailed
	default:
		o.Cause = outcome.CauseKernelReportedError
	}
	return o
}
