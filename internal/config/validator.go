package config

import (
	"fmt"
	"strings"

	"github.com/wesleyorama2/contend/internal/harness"
	"github.com/wesleyorama2/contend/internal/kernel"
)

// ValidationError represents a plan validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate validates every run of the plan after defaults are applied.
//
// Returns nil if valid, or a *ValidationErrors containing all problems.
func (c *PlanConfig) Validate() error {
	errs := &ValidationErrors{}

	if len(c.Runs) == 0 {
		errs.Add("runs", "at least one run is required")
	}

	for _, name := range c.RunNames() {
		if c.Runs[name] == nil {
			errs.Add("runs."+name, "run is empty")
			continue
		}
		run := c.Resolve(name)
		validateRun("runs."+name, &run, errs)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// validateRun validates a single resolved run.
func validateRun(prefix string, run *RunConfig, errs *ValidationErrors) {
	if run.Model == "" {
		errs.Add(prefix+".model", "model is required")
	} else if _, err := harness.ParseModel(run.Model); err != nil {
		errs.Add(prefix+".model", fmt.Sprintf("unknown model: %s", run.Model))
	}

	if run.Kind == "" {
		errs.Add(prefix+".kind", "kind is required")
	} else if _, err := kernel.ParseKind(run.Kind); err != nil {
		errs.Add(prefix+".kind", fmt.Sprintf("unknown kind: %s", run.Kind))
	}

	if run.Units <= 0 {
		errs.Add(prefix+".units", "units must be greater than 0")
	}

	if run.Iterations == 0 {
		errs.Add(prefix+".iterations", "iterations must be greater than 0")
	}

	switch kernel.Kind(run.Kind) {
	case kernel.KindMemory:
		if run.WorkingSetMB == 0 {
			errs.Add(prefix+".workingSetMB", "workingSetMB is required for mem runs")
		}
	case kernel.KindIO:
		if run.PayloadMB == 0 {
			errs.Add(prefix+".payloadMB", "payloadMB is required for io runs")
		}
		if run.PathPrefix == "" {
			errs.Add(prefix+".pathPrefix", "pathPrefix is required for io runs")
		}
	}
}

// ToPlan converts run name into the model and plan the harness executes.
func (c *PlanConfig) ToPlan(name string) (harness.Model, harness.Plan, error) {
	if _, ok := c.Runs[name]; !ok {
		return "", harness.Plan{}, fmt.Errorf("unknown run: %s", name)
	}
	run := c.Resolve(name)

	model, err := harness.ParseModel(run.Model)
	if err != nil {
		return "", harness.Plan{}, fmt.Errorf("run %s: %w", name, err)
	}

	return model, run.Plan(), nil
}

// Plan converts the run into a harness plan. The plan is not validated.
func (r RunConfig) Plan() harness.Plan {
	return harness.Plan{
		Units: r.Units,
		Kind:  kernel.Kind(r.Kind),
		Params: kernel.Params{
			Iterations:   r.Iterations,
			WorkingSetMB: r.WorkingSetMB,
			PayloadMB:    r.PayloadMB,
		},
		PathPrefix: r.PathPrefix,
	}
}

// FromPlan builds the run that ToPlan turns back into model and plan.
func FromPlan(model harness.Model, plan harness.Plan) *RunConfig {
	return &RunConfig{
		Model:        string(model),
		Kind:         string(plan.Kind),
		Units:        plan.Units,
		Iterations:   plan.Params.Iterations,
		WorkingSetMB: plan.Params.WorkingSetMB,
		PayloadMB:    plan.Params.PayloadMB,
		PathPrefix:   plan.PathPrefix,
	}
}
