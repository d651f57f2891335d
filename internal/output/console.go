// Package output provides console output for contend runs.
package output

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wesleyorama2/contend/internal/engine"
	"github.com/wesleyorama2/contend/internal/harness"
	"github.com/wesleyorama2/contend/internal/kernel"
	"github.com/wesleyorama2/contend/internal/metrics"
	"github.com/wesleyorama2/contend/internal/outcome"
)

const (
	boxHorizontal = "━"
	ruleWidth     = 56
)

// ConsoleOutput prints plan progress and results. It implements
// engine.Listener, so it can be handed straight to the engine.
type ConsoleOutput struct {
	writer    io.Writer
	scheme    *ColorScheme
	isTTY     bool
	useColors bool
	quiet     bool

	mu sync.Mutex
}

// ConsoleOutputConfig contains configuration for ConsoleOutput.
type ConsoleOutputConfig struct {
	Writer io.Writer

	// Quiet suppresses everything except the final PASSED/FAILED line.
	Quiet bool

	NoColor     bool
	ForceColors bool
	ForceTTY    bool
}

var _ engine.Listener = (*ConsoleOutput)(nil)

// NewConsoleOutput creates a new console output handler.
func NewConsoleOutput(config ConsoleOutputConfig) *ConsoleOutput {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	isTTY := config.ForceTTY || isTerminal(config.Writer)
	useColors := !config.NoColor && (config.ForceColors || (isTTY && supportsColors()))

	scheme := NoColorScheme()
	if useColors {
		scheme = ForcedColorScheme()
	}

	return &ConsoleOutput{
		writer:    config.Writer,
		scheme:    scheme,
		isTTY:     isTTY,
		useColors: useColors,
		quiet:     config.Quiet,
	}
}

// isTerminal checks if the writer is a terminal.
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isTerminalFile(f)
	}
	return false
}

// isTerminalFile checks if a file is a terminal (cross-platform).
func isTerminalFile(f *os.File) bool {
	if f == os.Stdout || f == os.Stderr {
		return checkIsTerminal(f)
	}
	return false
}

// supportsColors checks if the terminal supports colors.
func supportsColors() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}

	// Windows 10 and later terminals understand ANSI sequences.
	if runtime.GOOS == "windows" {
		return true
	}

	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

// RunStarted prints the header of a run.
func (c *ConsoleOutput) RunStarted(name string, model harness.Model, plan harness.Plan) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.rule()
	c.writeln(fmt.Sprintf("%s - Running [%s]", c.scheme.Heading.Sprint(name), model))
	c.rule()

	c.field("Kind", string(plan.Kind))
	c.field("Units", formatNumber(int64(plan.Units)))
	c.field("Iterations", formatNumber(int64(plan.Params.Iterations)))
	switch plan.Kind {
	case kernel.KindMemory:
		c.field("Working set", fmt.Sprintf("%d MB", plan.Params.WorkingSetMB))
	case kernel.KindIO:
		c.field("Payload", fmt.Sprintf("%d MB", plan.Params.PayloadMB))
		c.field("Path prefix", plan.PathPrefix)
	}
	c.writeln("")
}

// UnitFinished prints one line per unit as soon as its outcome is known.
// It is called from harness waiter goroutines.
func (c *ConsoleOutput) UnitFinished(_ string, o outcome.Outcome) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln(c.unitLine(o))
}

func (c *ConsoleOutput) unitLine(o outcome.Outcome) string {
	label := fmt.Sprintf("  [unit %d]", o.Ordinal)
	pid := ""
	if o.PID > 0 {
		pid = fmt.Sprintf(" pid %d", o.PID)
	}

	if o.Success() {
		return fmt.Sprintf("%s %s%s  %s  %s",
			label,
			c.scheme.Success.Sprint("finished ✓"),
			pid,
			formatDurationShort(o.Duration),
			c.scheme.Dim.Sprint(o.Detail))
	}

	return fmt.Sprintf("%s %s%s  %s",
		label,
		c.scheme.ForCause(o.Cause).Sprintf("%s ✗", o.Cause),
		pid,
		o.Error)
}

// RunFinished prints the summary of one run.
func (c *ConsoleOutput) RunFinished(name string, rr *engine.RunResult) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case rr.Skipped:
		c.writeln(fmt.Sprintf("%s - %s", c.scheme.Heading.Sprint(name), c.scheme.Dim.Sprint("Skipped")))
		c.writeln("")
		return
	case rr.Result == nil:
		c.writeln(fmt.Sprintf("%s - %s %s", c.scheme.Heading.Sprint(name), c.scheme.Error.Sprint("Error ✗"), rr.Error))
		c.writeln("")
		return
	}

	res := rr.Result
	status := c.scheme.Success.Sprint("Completed ✓")
	if !rr.Passed() {
		status = c.scheme.Error.Sprint("Failed ✗")
	}

	c.writeln("")
	c.rule()
	c.writeln(fmt.Sprintf("%s - %s", c.scheme.Heading.Sprint(name), status))
	c.rule()
	c.writeln("")

	c.field("Duration", formatDuration(res.Duration))
	c.field("Units", fmt.Sprintf("%d created of %d", res.Created, res.Units))
	c.field("Succeeded", formatNumber(int64(res.Counts.Succeeded)))
	if res.Counts.Failed > 0 {
		c.writeln(fmt.Sprintf("%-13s %s", "Failed:", c.scheme.Error.Sprint(formatNumber(int64(res.Counts.Failed)))))
		for _, cause := range outcome.Causes {
			if n := res.Counts.ByCause[cause]; n > 0 {
				c.writeln(fmt.Sprintf("  %-24s %d", cause.String()+":", n))
			}
		}
	}
	if dropped := res.Dropped(); dropped > 0 {
		c.writeln(fmt.Sprintf("%-13s %s", "Not created:", c.scheme.Warning.Sprint(dropped)))
	}
	c.writeln("")

	if res.Metrics != nil && res.Metrics.Durations.Count > 0 {
		c.printDistribution(res.Metrics.Durations)
	}
}

func (c *ConsoleOutput) printDistribution(d metrics.DurationStats) {
	c.writeln(c.scheme.Heading.Sprint("Unit Duration Distribution:"))
	c.writeln(fmt.Sprintf("  Min:       %s", formatDurationShort(d.Min)))
	c.writeln(fmt.Sprintf("  P50:       %s", formatDurationShort(d.P50)))
	c.writeln(fmt.Sprintf("  P90:       %s", formatDurationShort(d.P90)))
	c.writeln(fmt.Sprintf("  P95:       %s", formatDurationShort(d.P95)))
	c.writeln(fmt.Sprintf("  P99:       %s", formatDurationShort(d.P99)))
	c.writeln(fmt.Sprintf("  Max:       %s", formatDurationShort(d.Max)))
	c.writeln("")
}

// PrintSummary prints the plan verdict and one row per run.
func (c *ConsoleOutput) PrintSummary(result *engine.PlanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.quiet {
		if result.Passed {
			c.writeln(c.scheme.Success.Sprint("PASSED"))
		} else {
			c.writeln(c.scheme.Error.Sprint("FAILED"))
		}
		return
	}

	status := c.scheme.Success.Sprint("Passed ✓")
	if !result.Passed {
		status = c.scheme.Error.Sprint("Failed ✗")
	}
	name := result.Name
	if name == "" {
		name = "plan"
	}

	c.rule()
	c.writeln(fmt.Sprintf("%s - %s", c.scheme.Heading.Sprint(name), status))
	c.rule()

	for _, rr := range result.Runs {
		c.writeln(c.runRow(rr))
	}
	c.writeln("")
	c.field("Total time", formatDuration(result.Duration))
	c.writeln("")
}

func (c *ConsoleOutput) runRow(rr *engine.RunResult) string {
	var state, units, wall string
	switch {
	case rr.Skipped:
		state = c.scheme.Dim.Sprint("skipped")
	case rr.Result == nil:
		state = c.scheme.Error.Sprint("error")
	default:
		state = c.scheme.Success.Sprint(rr.Result.Verdict.String())
		if !rr.Passed() {
			state = c.scheme.Error.Sprint(rr.Result.Verdict.String())
		}
		units = fmt.Sprintf("%d/%d", rr.Result.Counts.Succeeded, rr.Result.Units)
		wall = formatDurationShort(rr.Result.Duration)
	}

	return fmt.Sprintf("  %s %s %s %s %s %s",
		padRight(rr.Name, 16),
		padRight(string(rr.Model), 8),
		padRight(string(rr.Plan.Kind), 4),
		padRight(state, 9),
		padRight(units, 9),
		wall)
}

// PrintComparison prints the process and thread runs of one workload side
// by side.
func (c *ConsoleOutput) PrintComparison(cmp *engine.Comparison) {
	if c.quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.writeln(c.scheme.Heading.Sprint("Process vs Thread:"))
	c.writeln(c.scheme.Dim.Sprintf("  %-8s %-9s %-9s %-10s %-10s %s", "model", "verdict", "units", "wall", "p50", "p99"))
	for _, rr := range []*engine.RunResult{cmp.Process, cmp.Thread} {
		if rr == nil {
			continue
		}
		c.writeln(c.comparisonRow(rr))
	}
	c.writeln("")

	if cmp.Ratio > 0 {
		c.field("Ratio", c.scheme.Highlight.Sprintf("%.2fx", cmp.Ratio)+c.scheme.Dim.Sprint(" (process / thread wall time)"))
	}
	if cmp.ValuesMatch {
		c.field("Values", c.scheme.Success.Sprint("match ✓"))
	} else {
		c.field("Values", c.scheme.Error.Sprint("differ ✗"))
	}
	c.writeln("")
}

func (c *ConsoleOutput) comparisonRow(rr *engine.RunResult) string {
	if rr.Result == nil {
		return fmt.Sprintf("  %s %s", padRight(string(rr.Model), 8), c.scheme.Error.Sprint("did not run"))
	}

	res := rr.Result
	verdict := c.scheme.ForCause(outcome.CauseNone).Sprint(res.Verdict.String())
	if !rr.Passed() {
		verdict = c.scheme.Error.Sprint(res.Verdict.String())
	}

	var p50, p99 string
	if res.Metrics != nil {
		p50 = formatDurationShort(res.Metrics.Durations.P50)
		p99 = formatDurationShort(res.Metrics.Durations.P99)
	}

	return fmt.Sprintf("  %s %s %s %s %s %s",
		padRight(string(res.Model), 8),
		padRight(verdict, 9),
		padRight(fmt.Sprintf("%d/%d", res.Counts.Succeeded, res.Units), 9),
		padRight(formatDurationShort(res.Duration), 10),
		padRight(p50, 10),
		p99)
}

// IsTTY returns whether the output is a terminal.
func (c *ConsoleOutput) IsTTY() bool {
	return c.isTTY
}

func (c *ConsoleOutput) rule() {
	c.writeln(c.scheme.Rule.Sprint(strings.Repeat(boxHorizontal, ruleWidth)))
}

func (c *ConsoleOutput) field(label, value string) {
	c.writeln(fmt.Sprintf("%-13s %s", label+":", c.scheme.Value.Sprint(value)))
}

// writeln writes to the output with a newline.
func (c *ConsoleOutput) writeln(s string) {
	fmt.Fprintln(c.writer, s)
}

// Helper functions

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
}

// formatDurationShort formats a duration in a short format.
func formatDurationShort(d time.Duration) string {
	if d < time.Microsecond {
		return "0ms"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// formatNumber formats a number with thousands separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	offset := len(str) % 3
	if offset > 0 {
		result.WriteString(str[:offset])
	}
	for i := offset; i < len(str); i += 3 {
		if result.Len() > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}
	return result.String()
}

// padRight pads s to width visible characters. Color codes do not count.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(stripANSI(s))
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	var result strings.Builder
	inEscape := false

	for i := 0; i < len(s); i++ {
		if s[i] == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (s[i] >= 'a' && s[i] <= 'z') || (s[i] >= 'A' && s[i] <= 'Z') {
				inEscape = false
			}
			continue
		}
		result.WriteByte(s[i])
	}

	return result.String()
}
