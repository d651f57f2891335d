package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/contend/internal/config"
	"github.com/wesleyorama2/contend/internal/engine"
	"github.com/wesleyorama2/contend/internal/harness"
	"github.com/wesleyorama2/contend/internal/kernel"
	"github.com/wesleyorama2/contend/internal/output"
	"github.com/wesleyorama2/contend/internal/report"
)

// Workload defaults. The core has none; every value reaches it explicitly.
const (
	defaultUnits        = 2
	defaultIterations   = 5000
	defaultWorkingSetMB = 128
	defaultPayloadMB    = 32
	defaultPathPrefix   = "/tmp/contend_io"
)

var runCmd = &cobra.Command{
	Use:   "run <cpu|mem|io>",
	Short: "Run one workload kernel under one execution model",
	Long: `Run N units of a workload kernel concurrently and exit non-zero if any
unit failed, could not be created or could not be waited for.

Examples:
  contend run cpu --model process -n 8 --iterations 200000
  contend run mem --model thread -n 4 --mem-mb 256
  contend run io -n 2 --payload-mb 16 --path-prefix /var/tmp/contend --html`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(kernel.KindCPU), string(kernel.KindMemory), string(kernel.KindIO)},
	RunE:      runWorkload,
}

func runWorkload(cmd *cobra.Command, args []string) error {
	modelName, _ := cmd.Flags().GetString("model")
	model, err := harness.ParseModel(modelName)
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}

	plan, err := planFromFlags(cmd, args[0])
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}

	name := fmt.Sprintf("%s-%s", plan.Kind, model)
	cfg := &config.PlanConfig{
		Name: fmt.Sprintf("%s x%d (%s)", plan.Kind, plan.Units, model),
		Runs: map[string]*config.RunConfig{name: config.FromPlan(model, plan)},
	}
	return executePlan(cmd, cfg)
}

// planFromFlags builds the harness plan from the workload flags. Size
// flags only apply to the kernel that uses them.
func planFromFlags(cmd *cobra.Command, kindName string) (harness.Plan, error) {
	kind, err := kernel.ParseKind(kindName)
	if err != nil {
		return harness.Plan{}, err
	}

	units, _ := cmd.Flags().GetInt("units")
	iterations, _ := cmd.Flags().GetUint64("iterations")

	plan := harness.Plan{
		Units:  units,
		Kind:   kind,
		Params: kernel.Params{Iterations: iterations},
	}

	switch kind {
	case kernel.KindMemory:
		plan.Params.WorkingSetMB, _ = cmd.Flags().GetUint64("mem-mb")
	case kernel.KindIO:
		plan.Params.PayloadMB, _ = cmd.Flags().GetUint64("payload-mb")
		plan.PathPrefix, _ = cmd.Flags().GetString("path-prefix")
	}
	return plan, nil
}

// executePlan runs cfg with the console attached and turns the verdict
// into the exit status.
func executePlan(cmd *cobra.Command, cfg *config.PlanConfig) error {
	console := newConsole(cmd)

	eng, err := engine.NewEngine(cfg,
		engine.WithLogger(slog.Default()),
		engine.WithListener(console))
	if err != nil {
		return planError(err)
	}

	result, err := eng.Run()
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}
	return finish(cmd, console, result, nil)
}

// planError maps an engine construction error to its exit status.
func planError(err error) error {
	var verrs *config.ValidationErrors
	if errors.As(err, &verrs) {
		return &ExitError{Code: ExitConfig, Err: err}
	}
	return &ExitError{Code: ExitFailure, Err: err}
}

func finish(cmd *cobra.Command, console *output.ConsoleOutput, result *engine.PlanResult, cmp *engine.Comparison) error {
	if cmp != nil {
		console.PrintComparison(cmp)
	}
	console.PrintSummary(result)

	if err := writeReports(cmd, result, cmp); err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	if code := result.Verdict().ExitCode(); code != ExitSuccess {
		return &ExitError{Code: code}
	}
	return nil
}

func newConsole(cmd *cobra.Command) *output.ConsoleOutput {
	quiet, _ := cmd.Flags().GetBool("quiet")
	noColor, _ := cmd.Flags().GetBool("no-color")

	// JSON on stdout must not be interleaved with progress lines.
	w := cmd.OutOrStdout()
	if jsonPath, _ := reportPaths(cmd); jsonPath == stdoutPath {
		w = cmd.ErrOrStderr()
	}

	return output.NewConsoleOutput(output.ConsoleOutputConfig{
		Writer:  w,
		Quiet:   quiet,
		NoColor: noColor,
	})
}

// Report path placeholders resolved by writeReports.
const (
	stdoutPath    = "-"
	generatedPath = "*"
)

// reportPaths resolves where the JSON and HTML reports go. An --output
// path ending in .json or .html selects that format; any other path gets
// both with the extensions appended. --json without a JSON path writes to
// stdout, --html without an HTML path picks a timestamped file name.
func reportPaths(cmd *cobra.Command) (jsonPath, htmlPath string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	htmlOutput, _ := cmd.Flags().GetBool("html")
	outputPath, _ := cmd.Flags().GetString("output")

	switch lower := strings.ToLower(outputPath); {
	case outputPath == "":
	case strings.HasSuffix(lower, ".json"):
		jsonPath = outputPath
	case strings.HasSuffix(lower, ".html"):
		htmlPath = outputPath
	default:
		jsonPath = outputPath + ".json"
		htmlPath = outputPath + ".html"
	}

	if jsonOutput && jsonPath == "" {
		jsonPath = stdoutPath
	}
	if htmlOutput && htmlPath == "" {
		htmlPath = generatedPath
	}
	return jsonPath, htmlPath
}

func writeReports(cmd *cobra.Command, result *engine.PlanResult, cmp *engine.Comparison) error {
	jsonPath, htmlPath := reportPaths(cmd)

	switch jsonPath {
	case "":
	case stdoutPath:
		if err := report.WriteJSON(cmd.OutOrStdout(), result, cmp); err != nil {
			return err
		}
	default:
		if err := report.GenerateJSON(result, cmp, jsonPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "JSON report saved to: %s\n", jsonPath)
	}

	if htmlPath == "" {
		return nil
	}
	if htmlPath == generatedPath {
		htmlPath = defaultHTMLPath(result.Name)
	}
	if err := report.GenerateHTML(result, cmp, htmlPath); err != nil {
		return err
	}
	if abs, err := filepath.Abs(htmlPath); err == nil {
		htmlPath = abs
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "HTML report saved to: %s\n", htmlPath)
	return nil
}

// defaultHTMLPath creates a default HTML report path based on the plan name
func defaultHTMLPath(planName string) string {
	safeName := strings.NewReplacer(" ", "-", "/", "-", ":", "", "(", "", ")", "").Replace(planName)
	safeName = strings.ToLower(safeName)
	if safeName == "" {
		safeName = "plan"
	}

	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("contend-report-%s-%s.html", safeName, timestamp)
}

func addWorkloadFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("units", "n", defaultUnits, "Number of concurrent units")
	cmd.Flags().Uint64("iterations", defaultIterations, "Kernel iterations per unit")
	cmd.Flags().Uint64("mem-mb", defaultWorkingSetMB, "Working set per unit in MiB (mem)")
	cmd.Flags().Uint64("payload-mb", defaultPayloadMB, "Payload per round in MiB (io)")
	cmd.Flags().String("path-prefix", defaultPathPrefix, "File prefix; unit i writes <prefix>_<i>.bin (io)")
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "Output results as JSON")
	cmd.Flags().Bool("html", false, "Generate HTML report")
	cmd.Flags().StringP("output", "o", "", "Report file; .json or .html selects the format, otherwise both are written")
}

func init() {
	runCmd.Flags().String("model", string(harness.ModelThread), "Execution model: process or thread")
	addWorkloadFlags(runCmd)
	addReportFlags(runCmd)
}
