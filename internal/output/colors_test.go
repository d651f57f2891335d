package output

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/wesleyorama2/contend/internal/outcome"
)

func TestColorSchemes(t *testing.T) {
	for name, scheme := range map[string]*ColorScheme{
		"default": DefaultColorScheme(),
		"none":    NoColorScheme(),
		"forced":  ForcedColorScheme(),
	} {
		t.Run(name, func(t *testing.T) {
			scheme.each(func(c *color.Color) {
				if c == nil {
					t.Error("scheme has a nil color")
				}
			})
		})
	}
}

func TestNoColorScheme_PlainText(t *testing.T) {
	scheme := NoColorScheme()
	if got := scheme.Error.Sprint("failed"); got != "failed" {
		t.Errorf("Error.Sprint = %q, want plain text", got)
	}
}

func TestForcedColorScheme_EmitsEscapes(t *testing.T) {
	scheme := ForcedColorScheme()
	got := scheme.Success.Sprint("ok")
	if !strings.Contains(got, "\033[") {
		t.Errorf("Success.Sprint = %q, want ANSI escape codes", got)
	}
	if stripANSI(got) != "ok" {
		t.Errorf("stripANSI(%q) = %q, want %q", got, stripANSI(got), "ok")
	}
}

func TestForCause(t *testing.T) {
	scheme := DefaultColorScheme()

	tests := []struct {
		cause outcome.Cause
		want  string
	}{
		{outcome.CauseNone, "success"},
		{outcome.CauseSpawnFailed, "warning"},
		{outcome.CauseWaitFailed, "warning"},
		{outcome.CauseAbnormalTermination, "error"},
		{outcome.CauseKernelReportedError, "error"},
	}

	byName := map[string]*color.Color{
		"success": scheme.Success,
		"warning": scheme.Warning,
		"error":   scheme.Error,
	}

	for _, tt := range tests {
		t.Run(tt.cause.String(), func(t *testing.T) {
			if got := scheme.ForCause(tt.cause); got != byName[tt.want] {
				t.Errorf("ForCause(%s) is not the %s color", tt.cause, tt.want)
			}
		})
	}
}

func TestIcons(t *testing.T) {
	tests := []struct {
		name string
		fn   func(bool) string
		want string
	}{
		{"success", SuccessIcon, "✓"},
		{"error", ErrorIcon, "✗"},
		{"info", InfoIcon, "ℹ"},
		{"warning", WarningIcon, "⚠"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(true); got != tt.want {
				t.Errorf("icon(noColor) = %q, want %q", got, tt.want)
			}
			if got := stripANSI(tt.fn(false)); got != tt.want {
				t.Errorf("icon(color) stripped = %q, want %q", got, tt.want)
			}
		})
	}
}
