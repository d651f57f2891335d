// Package engine runs plans: one or more named harness runs executed one
// after another.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/harness"
	"github.com/wesleyorama2/contend/internal/outcome"
)

// Engine is the orchestrator for plan execution.
//
// It coordinates:
//   - Plan validation
//   - Spawner construction per run
//   - Sequential execution of every run through the harness
//   - Result aggregation across runs
//
// Example usage:
//
//	cfg, _ := config.LoadConfig("plan.yaml")
//	engine, _ := NewEngine(cfg)
//	result, _ := engine.Run()
//	fmt.Printf("Plan passed: %v\n", result.Passed)
type Engine struct {
	config     *config.PlanConfig
	logger     *slog.Logger
	newSpawner SpawnerFactory
	listener   Listener

	mu      sync.Mutex
	running bool
}

// SpawnerFactory builds the spawner for one run.
type SpawnerFactory func(model harness.Model, logger *slog.Logger) (harness.Spawner, error)

// Listener receives progress events while a plan runs. UnitFinished is
// called from harness waiter goroutines and must be safe for concurrent
// use.
type Listener interface {
	RunStarted(name string, model harness.Model, plan harness.Plan)
	UnitFinished(name string, o outcome.Outcome)
	RunFinished(name string, result *RunResult)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger passed down to the harness and spawners.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSpawnerFactory replaces harness.NewSpawner.
func WithSpawnerFactory(f SpawnerFactory) Option {
	return func(e *Engine) {
		e.newSpawner = f
	}
}

// WithListener registers l for progress events.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// RunResult contains the result of one named run.
type RunResult struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Model       harness.Model `json:"model"`
	Plan        harness.Plan  `json:"plan"`

	// Result is nil when the run was skipped or could not start.
	Result *harness.Result `json:"result,omitempty"`

	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Passed reports whether the run executed and every unit succeeded.
func (r *RunResult) Passed() bool {
	return r.Result != nil && r.Error == "" && r.Result.Verdict == outcome.Success
}

// PlanResult contains the complete plan results.
type PlanResult struct {
	RunID       string        `json:"runId"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	StartTime   time.Time     `json:"startTime"`
	EndTime     time.Time     `json:"endTime"`
	Duration    time.Duration `json:"duration"`

	// Runs in execution order
	Runs []*RunResult `json:"runs"`

	Passed bool `json:"passed"`
}

// Run returns the run with the given name, or nil.
func (p *PlanResult) Run(name string) *RunResult {
	for _, r := range p.Runs {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// Verdict folds every run into one verdict.
func (p *PlanResult) Verdict() outcome.Verdict {
	return outcome.Verdict(p.Passed)
}

// NewEngine creates an engine for cfg.
//
// Returns the engine or an error if the plan is invalid.
func NewEngine(cfg *config.PlanConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}

	e := &Engine{
		config:     cfg,
		newSpawner: harness.NewSpawner,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e, nil
}

// Run executes every run of the plan in name order and returns the
// results. Runs never overlap, so one run's load does not distort
// another's measurements.
func (e *Engine) Run() (*PlanResult, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return nil, errors.New("engine is already running")
	}
	e.running = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	result := &PlanResult{
		RunID:       uuid.NewString(),
		Name:        e.config.Name,
		Description: e.config.Description,
		StartTime:   time.Now(),
		Passed:      true,
	}
	logger := e.logger.With("plan_id", result.RunID)

	stop := false
	for _, name := range e.config.RunNames() {
		if stop {
			logger.Info("skipping run after earlier failure", "run", name)
			result.Runs = append(result.Runs, e.skipped(name))
			continue
		}

		rr := e.runOne(name, logger.With("run", name))
		result.Runs = append(result.Runs, rr)

		if !rr.Passed() {
			result.Passed = false
			stop = e.config.StopOnFailure()
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)
	return result, nil
}

func (e *Engine) skipped(name string) *RunResult {
	model, plan, _ := e.config.ToPlan(name)
	rr := &RunResult{
		Name:        name,
		Description: e.config.Runs[name].Description,
		Model:       model,
		Plan:        plan,
		Skipped:     true,
	}
	if e.listener != nil {
		e.listener.RunFinished(name, rr)
	}
	return rr
}

// runOne executes a single run.
func (e *Engine) runOne(name string, logger *slog.Logger) *RunResult {
	rr := &RunResult{Name: name, Description: e.config.Runs[name].Description}
	defer func() {
		if e.listener != nil {
			e.listener.RunFinished(name, rr)
		}
	}()

	model, plan, err := e.config.ToPlan(name)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	rr.Model = model
	rr.Plan = plan

	if e.listener != nil {
		e.listener.RunStarted(name, model, plan)
	}

	spawner, err := e.newSpawner(model, logger)
	if err != nil {
		logger.Error("failed to create spawner", "error", err)
		rr.Error = err.Error()
		return rr
	}

	opts := []harness.Option{harness.WithLogger(logger)}
	if e.listener != nil {
		opts = append(opts, harness.WithObserver(func(o outcome.Outcome) {
			e.listener.UnitFinished(name, o)
		}))
	}

	res, err := harness.New(spawner, opts...).Run(plan)
	if err != nil {
		rr.Error = err.Error()
		return rr
	}
	rr.Result = res
	return rr
}
