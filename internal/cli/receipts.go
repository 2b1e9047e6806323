package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewReceiptsCommand creates the receipts command.
func NewReceiptsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "receipts",
		Short: "List recorded rule firings",
		Long: `List the firing receipts recorded by past cycles, oldest first.
Each receipt identifies the fired rule by content fingerprint, the
firing scope (once, or a calendar day for time rules), and the artifact
it produced.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReceipts(rootOpts, cmd)
		},
	}
	return cmd
}

func runReceipts(opts *RootOptions, cmd *cobra.Command) error {
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

	list, err := rt.receipts.List(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeReceipts, err.Error(), nil)
		return NewExitError(ExitCommandError, "listing receipts failed")
	}

	if formatter.Format == "json" {
		return formatter.Success(list)
	}

	if len(list) == 0 {
		fmt.Fprintln(formatter.Writer, "no firings recorded")
		return nil
	}
	for _, r := range list {
		fmt.Fprintf(formatter.Writer, "%s  %s [%s/%s]\n",
			r.FiredAt.Format("2006-01-02 15:04:05"), r.Description, r.ConditionKind, r.Scope)
		if r.Artifact != "" {
			fmt.Fprintf(formatter.Writer, "    artifact: %s\n", r.Artifact)
		}
	}
	return nil
}
