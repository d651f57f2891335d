package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/wesleyorama2/contend/internal/engine"
	"github.com/wesleyorama2/contend/internal/kernel"
)

var compareCmd = &cobra.Command{
	Use:   "compare <cpu|mem|io>",
	Short: "Run the same workload as processes and then as threads",
	Long: `Run one workload under the process model and then, with identical
parameters, under the thread model. The runs never overlap. The summary
shows both verdicts, the wall time ratio and whether both models computed
the same kernel values.

Example:
  contend compare cpu -n 4 --iterations 1000000`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(kernel.KindCPU), string(kernel.KindMemory), string(kernel.KindIO)},
	RunE:      compareModels,
}

func compareModels(cmd *cobra.Command, args []string) error {
	plan, err := planFromFlags(cmd, args[0])
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}

	console := newConsole(cmd)
	result, cmp, err := engine.Compare(plan,
		engine.WithLogger(slog.Default()),
		engine.WithListener(console))
	if err != nil {
		return planError(err)
	}
	return finish(cmd, console, result, cmp)
}

func init() {
	addWorkloadFlags(compareCmd)
	addReportFlags(compareCmd)
}
