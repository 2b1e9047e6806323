package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gordonmattey/port42-premise/internal/crystal"
)

// CrystallizeOptions holds flags for the crystallize command.
type CrystallizeOptions struct {
	*RootOptions
	Name        string
	Description string
	Fields      []string
	From        string
}

// NewCrystallizeCommand creates the crystallize command.
func NewCrystallizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CrystallizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "crystallize",
		Short: "Create a structured data system with generated commands",
		Long: `Create a data system: a JSON data file under data/ plus add, list,
and search commands under bin/ that operate on it. The generated
commands are recorded in the event log, so rules can react to them.

The system can be described with flags, or parsed from generator output
in SYSTEM_NAME:/FIELDS:/DESCRIPTION: line format via --from.

Example:
  port42d crystallize --name expense-tracker --fields amount,category,date
  some-generator | port42d crystallize --from -`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCrystallize(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "data system name (kebab-case)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "what the system tracks")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "record fields (default name,status,notes,date)")
	cmd.Flags().StringVar(&opts.From, "from", "", "parse the system spec from a file, or - for stdin")

	return cmd
}

func runCrystallize(opts *CrystallizeOptions, cmd *cobra.Command) error {
	rt, err := buildRuntime(opts.RootOptions, false)
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

	now := time.Now()
	spec, err := resolveSpec(opts, cmd, now)
	if err != nil {
		_ = formatter.Error(ErrCodeCrystallize, err.Error(), nil)
		return NewExitError(ExitCommandError, "crystallize failed")
	}

	c := crystal.New(rt.ws, rt.events, rt.log)
	result, err := c.Create(spec, now)
	if err != nil {
		_ = formatter.Error(ErrCodeCrystallize, err.Error(), nil)
		return NewExitError(ExitFailure, "crystallize failed")
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "data system created: %s\n", result.Name)
	fmt.Fprintf(formatter.Writer, "  data file: %s\n", result.DataFile)
	for _, name := range result.Commands {
		fmt.Fprintf(formatter.Writer, "  command:   %s\n", name)
	}
	return nil
}

func resolveSpec(opts *CrystallizeOptions, cmd *cobra.Command, now time.Time) (crystal.Spec, error) {
	if opts.From != "" {
		var data []byte
		var err error
		if opts.From == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(opts.From)
		}
		if err != nil {
			return crystal.Spec{}, fmt.Errorf("reading spec from %s: %w", opts.From, err)
		}
		return crystal.ParseResponse(string(data), now), nil
	}

	if opts.Name == "" {
		return crystal.Spec{}, fmt.Errorf("either --name or --from is required")
	}
	name := crystal.SanitizeName(opts.Name)
	if name == "" {
		return crystal.Spec{}, fmt.Errorf("invalid data system name %q", opts.Name)
	}

	spec := crystal.Spec{
		Name:        name,
		Description: opts.Description,
		Fields:      opts.Fields,
	}
	if spec.Description == "" {
		spec.Description = "Data tracking system"
	}
	if len(spec.Fields) == 0 {
		spec.Fields = crystal.DefaultFields()
	}
	return spec, nil
}
