package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gordonmattey/port42-premise/internal/memory"
)

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single evaluation cycle and exit",
		Long: `Run one full load-evaluate-execute-persist cycle and report what it
did. Useful from cron or as a smoke test for a rule file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, cmd *cobra.Command) error {
	rt, err := buildRuntime(opts, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	report, err := rt.engine.RunCycle(ctx)
	if err != nil {
		code := ErrCodeGeneric
		if memory.IsParseError(err) {
			code = ErrCodeStoreParse
		}
		_ = formatter.Error(code, err.Error(), nil)
		return NewExitError(ExitFailure, "cycle failed")
	}

	if formatter.Format == "json" {
		return formatter.Success(report)
	}

	fmt.Fprintf(formatter.Writer, "cycle %s\n", report.Token)
	fmt.Fprintf(formatter.Writer, "  rules:     %d (%d evaluated)\n", report.Rules, report.Evaluated)
	fmt.Fprintf(formatter.Writer, "  events:    %d\n", report.Events)
	fmt.Fprintf(formatter.Writer, "  fired:     %d\n", report.Fired)
	if report.Recovered > 0 {
		fmt.Fprintf(formatter.Writer, "  recovered: %d\n", report.Recovered)
	}
	if report.Persisted {
		fmt.Fprintln(formatter.Writer, "  rule store updated")
	}
	return nil
}
