package cli

import (
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/contend/internal/harness"
)

// unitCmd is the child side of the process model. The parent re-executes
// this binary as "contend unit --ordinal N --kind K ..." and reads the
// single JSON report line from stdout.
var unitCmd = &cobra.Command{
	Use:                "unit",
	Short:              "Run one unit and report on stdout",
	Hidden:             true,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if code := harness.ServeUnit(args, cmd.OutOrStdout(), cmd.ErrOrStderr()); code != harness.ExitOK {
			return &ExitError{Code: code}
		}
		return nil
	},
}
