package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gordonmattey/port42-premise/internal/rules"
)

// ValidationResult holds rule store validation results.
type ValidationResult struct {
	Valid  bool                    `json:"valid"`
	Issues []rules.ValidationIssue `json:"issues,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [rules-file]",
		Short: "Validate a rule store against the schema",
		Long: `Check a rule store file against the rule schema without evaluating
anything. Defaults to the workspace rule store when no file is given.

The engine itself tolerates unknown condition and action kinds at run
time; validation exists to catch authoring mistakes early.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
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

	if path == "" {
		path = rt.ws.RulesPath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// A missing store is an empty store, which is trivially valid.
		formatter.VerboseLog("no rule store at %s", path)
		return outputValid(formatter)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreParse, fmt.Sprintf("reading %s: %v", path, err), nil)
		return NewExitError(ExitCommandError, "validate failed")
	}

	formatter.VerboseLog("validating %s", path)
	issues, err := rules.ValidateStore(data)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreParse, err.Error(), nil)
		return NewExitError(ExitCommandError, "validate failed")
	}

	if len(issues) == 0 {
		return outputValid(formatter)
	}

	if formatter.Format == "json" {
		_ = formatter.Error(ErrCodeValidation, fmt.Sprintf("%d issue(s) found", len(issues)),
			ValidationResult{Valid: false, Issues: issues})
	} else {
		fmt.Fprintln(formatter.Writer, "validation failed")
		for _, issue := range issues {
			fmt.Fprintf(formatter.Writer, "  %s\n", issue)
		}
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d issue(s)", len(issues)))
}

func outputValid(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}
	fmt.Fprintln(formatter.Writer, "rule store valid")
	return nil
}
