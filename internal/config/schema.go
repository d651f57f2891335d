// Package config provides plan file parsing and validation.
package config

import (
	_ "embed"
	"sort"
)

// PlanConfig is the root of a plan file.
//
// Example YAML:
//
//	name: "cpu vs threads"
//	defaults:
//	  iterations: 100000
//	  units: 4
//	runs:
//	  cpu-procs:
//	    model: process
//	    kind: cpu
//	  cpu-threads:
//	    model: thread
//	    kind: cpu
//	  io-threads:
//	    model: thread
//	    kind: io
//	    units: 2
//	    payloadMB: 1
//	    pathPrefix: /tmp/contend
type PlanConfig struct {
	// Name of the plan (for reporting)
	Name string `json:"name" yaml:"name"`

	// Description of the plan (optional)
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Defaults fill in any field a run leaves unset
	Defaults RunConfig `json:"defaults,omitempty" yaml:"defaults,omitempty"`

	// Runs are executed one after another in name order
	Runs map[string]*RunConfig `json:"runs" yaml:"runs"`

	// Options for plan execution
	Options *ExecutionOptions `json:"options,omitempty" yaml:"options,omitempty"`
}

// RunConfig describes one harness run.
type RunConfig struct {
	// Description of the run (optional)
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Model is the execution model: "process" or "thread"
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// Kind is the kernel: "cpu", "mem" or "io"
	Kind string `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Units is the number of concurrent units
	Units int `json:"units,omitempty" yaml:"units,omitempty"`

	// Iterations is the number of kernel rounds per unit
	Iterations uint64 `json:"iterations,omitempty" yaml:"iterations,omitempty"`

	// WorkingSetMB is the mem kernel buffer size per unit
	WorkingSetMB uint64 `json:"workingSetMB,omitempty" yaml:"workingSetMB,omitempty"`

	// PayloadMB is the io kernel payload size per unit
	PayloadMB uint64 `json:"payloadMB,omitempty" yaml:"payloadMB,omitempty"`

	// PathPrefix is the io kernel file prefix; unit i writes <prefix>_<i>.bin
	PathPrefix string `json:"pathPrefix,omitempty" yaml:"pathPrefix,omitempty"`
}

// ExecutionOptions controls how a plan is executed.
type ExecutionOptions struct {
	// StopOnFailure skips the remaining runs once a run fails
	StopOnFailure bool `json:"stopOnFailure,omitempty" yaml:"stopOnFailure,omitempty"`
}

// RunNames returns the run names in execution order.
func (c *PlanConfig) RunNames() []string {
	names := make([]string, 0, len(c.Runs))
	for name := range c.Runs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns run name with Defaults applied to every unset field.
func (c *PlanConfig) Resolve(name string) RunConfig {
	run := RunConfig{}
	if r := c.Runs[name]; r != nil {
		run = *r
	}
	d := c.Defaults

	if run.Model == "" {
		run.Model = d.Model
	}
	if run.Kind == "" {
		run.Kind = d.Kind
	}
	if run.Units == 0 {
		run.Units = d.Units
	}
	if run.Iterations == 0 {
		run.Iterations = d.Iterations
	}
	if run.WorkingSetMB == 0 {
		run.WorkingSetMB = d.WorkingSetMB
	}
	if run.PayloadMB == 0 {
		run.PayloadMB = d.PayloadMB
	}
	if run.PathPrefix == "" {
		run.PathPrefix = d.PathPrefix
	}
	return run
}

// StopOnFailure reports whether the plan stops after the first failed run.
func (c *PlanConfig) StopOnFailure() bool {
	return c.Options != nil && c.Options.StopOnFailure
}

// planSchema is the JSON Schema every plan document must satisfy before
// it is decoded. It catches misspelled keys that decoding would ignore.
//
//go:embed plan.schema.json
var planSchema string
