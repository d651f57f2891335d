package harness

import (
	"fmt"

	"github.com/wesleyorama2/contend/internal/kernel"
)

// Unit is one execution of a kernel. It is bound to its ordinal when the
// plan creates it and never changes afterwards.
type Unit struct {
	Ordinal int
	Kind    kernel.Kind
	Params  kernel.Params
}

// Plan describes one harness run: how many units, which kernel and the
// kernel parameters every unit shares.
type Plan struct {
	Units int         `json:"units" yaml:"units"`
	Kind  kernel.Kind `json:"kind" yaml:"kind"`

	// Params is the template for every unit. Params.Path is ignored; io
	// units derive their path from PathPrefix.
	Params kernel.Params `json:"params" yaml:"params"`

	// PathPrefix is required for io runs.
	PathPrefix string `json:"pathPrefix,omitempty" yaml:"pathPrefix,omitempty"`
}

// Validate checks the plan and returns a *ConfigurationError for the first
// problem found.
func (p Plan) Validate() error {
	if p.Units < 1 {
		return &ConfigurationError{Field: "units", Value: p.Units, Message: "must be at least 1"}
	}

	if _, err := kernel.ParseKind(string(p.Kind)); err != nil {
		return &ConfigurationError{Field: "kind", Value: p.Kind, Message: "must be cpu, mem or io"}
	}

	if p.Params.Iterations == 0 {
		return &ConfigurationError{Field: "iterations", Value: p.Params.Iterations, Message: "must be positive"}
	}

	switch p.Kind {
	case kernel.KindMemory:
		if p.Params.WorkingSetMB == 0 {
			return &ConfigurationError{Field: "workingSetMB", Value: p.Params.WorkingSetMB, Message: "must be positive"}
		}
	case kernel.KindIO:
		if p.Params.PayloadMB == 0 {
			return &ConfigurationError{Field: "payloadMB", Value: p.Params.PayloadMB, Message: "must be positive"}
		}
		if p.PathPrefix == "" {
			return &ConfigurationError{Field: "pathPrefix", Value: p.PathPrefix, Message: "is required for io runs"}
		}
	}

	return nil
}

// Unit returns the unit with ordinal i.
func (p Plan) Unit(i int) Unit {
	params := p.Params
	params.Path = ""
	if p.Kind == kernel.KindIO {
		params.Path = UnitPath(p.PathPrefix, i)
	}
	return Unit{Ordinal: i, Kind: p.Kind, Params: params}
}

// UnitPath returns the file owned by io unit i.
func UnitPath(prefix string, i int) string {
	return fmt.Sprintf("%s_%d.bin", prefix, i)
}
