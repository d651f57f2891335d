package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Exit statuses of the contend binary.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitConfig  = 2
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "contend",
	Short:   "Run synthetic CPU, memory and I/O load as processes or threads",
	Version: version,
	Long: `Contend runs N concurrent units of a synthetic workload kernel (cpu, mem
or io) either as separate child processes or as OS threads inside one
process. It waits for every unit, classifies how each one ended and folds
the outcomes into a single verdict that becomes the exit status.

Running the same workload under both models shows what process isolation
costs and what a shared address space risks.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(cmd))
	},
	Run: func(cmd *cobra.Command, args []string) {
		// If no subcommand is provided, print help
		cmd.Help()
	},
}

// ExitError ends a command with a specific exit status. Err is printed
// when set.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It returns the process exit status.
func Execute() int {
	err := RootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintln(RootCmd.ErrOrStderr(), "Error:", exitErr.Err)
		}
		return exitErr.Code
	}

	// cobra argument and flag errors
	fmt.Fprintln(RootCmd.ErrOrStderr(), "Error:", err)
	return ExitConfig
}

// newLogger builds the structured logger for harness events. Output goes
// to stderr so stdout stays free for results.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func init() {
	RootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every unit spawn and exit to stderr")
	RootCmd.PersistentFlags().BoolP("quiet", "q", false, "Print only the final PASSED/FAILED line")
	RootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	// Add subcommands to root command
	RootCmd.AddCommand(runCmd)
	RootCmd.AddCommand(compareCmd)
	RootCmd.AddCommand(planCmd)
	RootCmd.AddCommand(unitCmd)
}
