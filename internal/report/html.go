// Package report renders plan results as a self-contained HTML page or as
// JSON.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/wesleyorama2/contend/internal/engine"
	"github.com/wesleyorama2/contend/internal/outcome"
)

// ReportData contains all data needed to render the HTML report.
type ReportData struct {
	*engine.PlanResult
	Comparison *engine.Comparison
	UnitsJSON  template.JS
	HasUnits   bool
}

// UnitPoint is one unit outcome in the chart data.
type UnitPoint struct {
	Run        string  `json:"run"`
	Ordinal    int     `json:"ordinal"`
	DurationMs float64 `json:"durationMs"`
	Cause      string  `json:"cause"`
	PID        int     `json:"pid,omitempty"`
}

// GenerateHTML generates an HTML report from plan results and writes it to a file.
// cmp may be nil.
func GenerateHTML(result *engine.PlanResult, cmp *engine.Comparison, outputPath string) error {
	html, err := GenerateHTMLString(result, cmp)
	if err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}

	if err := os.WriteFile(outputPath, []byte(html), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}

	return nil
}

// GenerateHTMLString generates an HTML report from plan results and returns it as a string.
func GenerateHTMLString(result *engine.PlanResult, cmp *engine.Comparison) (string, error) {
	if result == nil {
		return "", fmt.Errorf("result cannot be nil")
	}

	tmpl, err := template.New("report").Funcs(templateFuncs()).Parse(htmlTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	points := unitPoints(result)
	unitsJSON, err := json.Marshal(points)
	if err != nil {
		return "", fmt.Errorf("failed to convert unit outcomes: %w", err)
	}

	data := ReportData{
		PlanResult: result,
		Comparison: cmp,
		UnitsJSON:  template.JS(unitsJSON),
		HasUnits:   len(points) > 0,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// unitPoints flattens the outcomes of every executed run for the chart.
// Units that never started carry no wall time and are left out.
func unitPoints(result *engine.PlanResult) []UnitPoint {
	points := []UnitPoint{}
	for _, rr := range result.Runs {
		if rr.Result == nil {
			continue
		}
		for _, o := range rr.Result.Outcomes {
			if o.Cause == outcome.CauseSpawnFailed {
				continue
			}
			points = append(points, UnitPoint{
				Run:        rr.Name,
				Ordinal:    o.Ordinal,
				DurationMs: float64(o.Duration.Microseconds()) / 1000,
				Cause:      o.Cause.String(),
				PID:        o.PID,
			})
		}
	}
	return points
}

// templateFuncs returns the template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatElapsed":  formatElapsed,
		"formatNumber":   formatNumber,
		"formatDuration": formatDuration,
		"formatBytes":    formatBytes,
		"causeClass":     causeClass,
		"runStatus":      runStatus,
		"runLabel":       runLabel,
		"planName":       planName,
	}
}

// formatElapsed formats a plan or run duration in a human-readable way.
func formatElapsed(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh %dm", hours, mins)
}

// formatNumber formats an iteration count with commas.
func formatNumber(n uint64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	result := ""
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}

// formatDuration formats a unit wall time in a human-readable way.
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0"
	}
	if d < time.Microsecond {
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
	if d < time.Millisecond {
		us := float64(d.Microseconds())
		if us < 100 {
			return fmt.Sprintf("%.1fµs", us)
		}
		return fmt.Sprintf("%dµs", int(us))
	}
	if d < time.Second {
		ms := float64(d.Microseconds()) / 1000.0
		if ms < 10 {
			return fmt.Sprintf("%.2fms", ms)
		}
		if ms < 100 {
			return fmt.Sprintf("%.1fms", ms)
		}
		return fmt.Sprintf("%dms", int(ms))
	}
	s := d.Seconds()
	if s < 10 {
		return fmt.Sprintf("%.2fs", s)
	}
	return fmt.Sprintf("%.1fs", s)
}

// formatBytes formats bytes in a human-readable way.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// causeClass maps an outcome cause to its CSS class.
func causeClass(c outcome.Cause) string {
	switch c {
	case outcome.CauseNone:
		return "success"
	case outcome.CauseSpawnFailed, outcome.CauseWaitFailed:
		return "warning"
	default:
		return "error"
	}
}

// runStatus maps a run to its status badge class.
func runStatus(rr *engine.RunResult) string {
	switch {
	case rr.Skipped:
		return "skip"
	case rr.Passed():
		return "pass"
	default:
		return "fail"
	}
}

func runLabel(rr *engine.RunResult) string {
	switch {
	case rr.Skipped:
		return "SKIPPED"
	case rr.Passed():
		return "✓ PASSED"
	default:
		return "✗ FAILED"
	}
}

func planName(name string) string {
	if name == "" {
		return "contend"
	}
	return name
}
