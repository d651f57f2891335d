package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/contend/internal/config"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run every run of a plan file",
	Long: `Run a YAML or JSON plan file. Runs execute one after another in name
order; the plan fails if any run fails.

Example plan:
  name: "cpu vs threads"
  defaults:
    units: 4
    iterations: 100000
  runs:
    cpu-procs:   {model: process, kind: cpu}
    cpu-threads: {model: thread, kind: cpu}
  options:
    stopOnFailure: true

Example:
  contend plan --config plan.yaml --output results/nightly`,
	Args: cobra.NoArgs,
	RunE: runPlanFile,
}

func runPlanFile(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return &ExitError{Code: ExitConfig, Err: err}
	}
	return executePlan(cmd, cfg)
}

func init() {
	planCmd.Flags().StringP("config", "c", "", "Plan file (.yaml, .yml or .json)")
	planCmd.MarkFlagRequired("config")
	addReportFlags(planCmd)
}
