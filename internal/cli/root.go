// Package cli wires the daemon's commands: the long-running watch loop,
// single-shot evaluation, rule diagnostics and validation, data system
// crystallization, and receipt inspection.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Home    string // workspace root override; empty means config/default
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the port42d CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "port42d",
		Short: "port42d - rule evaluation and triggering daemon",
		Long: `A polling automation daemon. Rules pair a condition over the command
event log with an action; when a condition holds, the action fires once,
materializing an executable command in the workspace bin directory.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Home, "home", "", "workspace root (default $PORT42_HOME or ~/.port42-premise)")

	cmd.AddCommand(NewWatchCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewCrystallizeCommand(opts))
	cmd.AddCommand(NewReceiptsCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
