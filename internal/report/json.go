package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wesleyorama2/contend/internal/engine"
	"github.com/wesleyorama2/contend/internal/outcome"
)

// Document is the JSON form of a plan result.
type Document struct {
	Verdict     outcome.Verdict    `json:"verdict"`
	ExitCode    int                `json:"exitCode"`
	GeneratedAt time.Time          `json:"generatedAt"`
	Plan        *engine.PlanResult `json:"plan"`
	Comparison  *engine.Comparison `json:"comparison,omitempty"`
}

// NewDocument wraps result and the optional comparison.
func NewDocument(result *engine.PlanResult, cmp *engine.Comparison) *Document {
	verdict := result.Verdict()
	return &Document{
		Verdict:     verdict,
		ExitCode:    verdict.ExitCode(),
		GeneratedAt: time.Now(),
		Plan:        result,
		Comparison:  cmp,
	}
}

// WriteJSON writes the indented JSON document for result to w.
func WriteJSON(w io.Writer, result *engine.PlanResult, cmp *engine.Comparison) error {
	if result == nil {
		return fmt.Errorf("result cannot be nil")
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(result, cmp)); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

// GenerateJSON writes the JSON document for result to outputPath.
func GenerateJSON(result *engine.PlanResult, cmp *engine.Comparison, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}

	if err := WriteJSON(f, result, cmp); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
