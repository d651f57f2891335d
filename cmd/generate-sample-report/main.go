package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/wesleyorama2/contend/internal/engine"
	"github.com/wesleyorama2/contend/internal/harness"
	"github.com/wesleyorama2/contend/internal/kernel"
	"github.com/wesleyorama2/contend/internal/metrics"
	"github.com/wesleyorama2/contend/internal/outcome"
	"github.com/wesleyorama2/contend/internal/report"
)

func main() {
	result, cmp := createSamplePlanResult()

	outputPath := "sample-report.html"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	err := report.GenerateHTML(result, cmp, outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Sample report generated: %s\n", outputPath)
}

func createSamplePlanResult() (*engine.PlanResult, *engine.Comparison) {
	now := time.Now()
	plan := harness.Plan{
		Units:  8,
		Kind:   kernel.KindCPU,
		Params: kernel.Params{Iterations: 2000000},
	}
	value := math.Float64bits(kernel.RunCPU(plan.Params.Iterations))

	process := sampleRun(harness.ModelProcess, plan, value, now.Add(-9*time.Second), 41000, func(i int) outcome.Outcome {
		if i == 5 {
			return outcome.Outcome{
				Ordinal: i,
				Cause:   outcome.CauseAbnormalTermination,
				Error:   fmt.Sprintf("unit %d (pid %d) killed by SIGKILL", i, 41000+i),
			}
		}
		return outcome.Outcome{}
	})
	thread := sampleRun(harness.ModelThread, plan, value, now.Add(-4*time.Second), 0, nil)

	result := &engine.PlanResult{
		RunID:       "3f6c0a52-5a4e-4f0e-9f7b-2d1c8e6b7a90",
		Name:        "cpu: process vs thread",
		Description: "Sample comparison with one process unit killed mid-run",
		StartTime:   now.Add(-9 * time.Second),
		EndTime:     now,
		Duration:    9 * time.Second,
		Runs:        []*engine.RunResult{process, thread},
		Passed:      process.Passed() && thread.Passed(),
	}
	return result, engine.NewComparison(result)
}

// sampleRun fabricates a finished run. fail may override the outcome of a
// unit; a zero Outcome means the unit succeeded.
func sampleRun(model harness.Model, plan harness.Plan, value uint64, start time.Time, basePID int, fail func(int) outcome.Outcome) *engine.RunResult {
	recorder := metrics.NewRecorder()
	outcomes := make([]outcome.Outcome, plan.Units)

	for i := range outcomes {
		o := outcome.Outcome{
			Ordinal: i,
			Value:   value,
			Detail:  kernel.Result{Kind: plan.Kind, Value: value}.String(),
		}
		if fail != nil {
			if f := fail(i); f.Cause != outcome.CauseNone {
				o = f
			}
		}
		if basePID > 0 {
			o.PID = basePID + i
		}
		o.Duration = time.Duration(1800+97*i) * time.Millisecond
		if model == harness.ModelThread {
			o.Duration = time.Duration(1400+61*i) * time.Millisecond
		}

		recorder.UnitStarted()
		recorder.UnitFinished(o, 0)
		outcomes[i] = o
	}

	res := &harness.Result{
		RunID:     fmt.Sprintf("sample-%s", model),
		Model:     model,
		Kind:      plan.Kind,
		Params:    plan.Params,
		Units:     plan.Units,
		Created:   plan.Units,
		Outcomes:  outcomes,
		Counts:    outcome.Tally(outcomes),
		Verdict:   outcome.Aggregate(outcomes),
		StartTime: start,
		EndTime:   start.Add(outcomes[len(outcomes)-1].Duration),
		Duration:  outcomes[len(outcomes)-1].Duration,
		Metrics:   recorder.Snapshot(),
	}

	return &engine.RunResult{
		Name:        string(model),
		Description: fmt.Sprintf("%s kernel under the %s model", plan.Kind, model),
		Model:       model,
		Plan:        plan,
		Result:      res,
	}
}
