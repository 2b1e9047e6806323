package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gordonmattey/port42-premise/internal/memory"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show how each rule would evaluate right now",
		Long: `Evaluate every rule's condition against the current event log and
clock without executing anything, and show the verdict per rule. Fired
rules, pending thresholds, and condition defects are all visible.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, cmd)
		},
	}
	return cmd
}

func runExplain(opts *RootOptions, cmd *cobra.Command) error {
	rt, err := buildRuntime(opts, false)
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

	analyses, err := rt.engine.Explain(ctx)
	if err != nil {
		code := ErrCodeGeneric
		if memory.IsParseError(err) {
			code = ErrCodeStoreParse
		}
		_ = formatter.Error(code, err.Error(), nil)
		return NewExitError(ExitCommandError, "explain failed")
	}

	if formatter.Format == "json" {
		return formatter.Success(analyses)
	}

	if len(analyses) == 0 {
		fmt.Fprintln(formatter.Writer, "no rules defined")
		return nil
	}
	for _, a := range analyses {
		marker := " "
		switch {
		case a.Defect != "":
			marker = "!"
		case a.Eligible && a.WouldTrigger:
			marker = "*"
		case !a.Eligible:
			marker = "-"
		}
		fmt.Fprintf(formatter.Writer, "%s %s [%s]\n", marker, a.Description, a.Kind)
		if a.Defect != "" {
			fmt.Fprintf(formatter.Writer, "    defect: %s\n", a.Defect)
		} else {
			fmt.Fprintf(formatter.Writer, "    %s\n", a.Detail)
		}
		if !a.Eligible {
			fmt.Fprintln(formatter.Writer, "    already executed")
		}
	}
	return nil
}
