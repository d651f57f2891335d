package engine

import (
	"fmt"
	"time"

	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/harness"
)

// Comparison sets the process and thread runs of the same workload side by
// side.
type Comparison struct {
	Process *RunResult `json:"process"`
	Thread  *RunResult `json:"thread"`

	// Ratio is process wall time divided by thread wall time. It is zero
	// when either run did not execute.
	Ratio float64 `json:"ratio"`

	// ValuesMatch reports whether every successful unit of both runs
	// produced the same kernel value.
	ValuesMatch bool `json:"valuesMatch"`
}

// ComparePlan builds a two-run plan that executes plan under the process
// model and then the thread model.
func ComparePlan(plan harness.Plan) *config.PlanConfig {
	run := func(model harness.Model) *config.RunConfig {
		rc := config.FromPlan(model, plan)
		rc.Description = fmt.Sprintf("%s kernel under the %s model", plan.Kind, model)
		return rc
	}

	return &config.PlanConfig{
		Name: fmt.Sprintf("%s: process vs thread", plan.Kind),
		Runs: map[string]*config.RunConfig{
			string(harness.ModelProcess): run(harness.ModelProcess),
			string(harness.ModelThread):  run(harness.ModelThread),
		},
	}
}

// Compare runs plan under both models and returns the plan result together
// with the side-by-side comparison.
func Compare(plan harness.Plan, opts ...Option) (*PlanResult, *Comparison, error) {
	e, err := NewEngine(ComparePlan(plan), opts...)
	if err != nil {
		return nil, nil, err
	}

	result, err := e.Run()
	if err != nil {
		return nil, nil, err
	}
	return result, NewComparison(result), nil
}

// NewComparison pairs the process and thread runs of a comparison plan.
func NewComparison(result *PlanResult) *Comparison {
	c := &Comparison{
		Process: result.Run(string(harness.ModelProcess)),
		Thread:  result.Run(string(harness.ModelThread)),
	}

	p, t := wallTime(c.Process), wallTime(c.Thread)
	if p > 0 && t > 0 {
		c.Ratio = float64(p) / float64(t)
	}
	c.ValuesMatch = valuesMatch(c.Process, c.Thread)
	return c
}

func wallTime(r *RunResult) time.Duration {
	if r == nil || r.Result == nil {
		return 0
	}
	return r.Result.Duration
}

// valuesMatch checks that both models computed the same thing. Units of
// one run share their parameters, so every successful unit must report
// the same value.
func valuesMatch(runs ...*RunResult) bool {
	var (
		want uint64
		seen bool
	)
	for _, r := range runs {
		if r == nil || r.Result == nil {
			continue
		}
		for _, o := range r.Result.Outcomes {
			if !o.Success() {
				continue
			}
			if !seen {
				want, seen = o.Value, true
				continue
			}
			if o.Value != want {
				return false
			}
		}
	}
	return seen
}
