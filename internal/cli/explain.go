package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "explain [query|-]",
		Short: "Show the Gremlin text and options for a query",
		Long: `Show the Gremlin text a query translates to, together with its
statement options such as EXPLAIN. Nothing is executed.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, flags, args, cmd)
		},
	}
	flags.register(cmd, false)

	return cmd
}

func runExplain(opts *RootOptions, flags *queryFlags, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	env, err := LoadEnv(opts, cmd.ErrOrStderr())
	if err != nil {
		return outputCommandError(formatter, err)
	}
	defer env.Close()

	req, err := flags.request(env, args, cmd.InOrStdin())
	if err != nil {
		return outputCommandError(formatter, err)
	}

	exp, err := env.Translator.Explain(contextOf(cmd), req)
	if err != nil {
		return outputQueryError(formatter, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(exp)
	}
	options := "none"
	if len(exp.Options) > 0 {
		options = strings.Join(exp.Options, ", ")
	}
	fmt.Fprintf(formatter.Writer, "Options: %s\n", options)
	fmt.Fprintf(formatter.Writer, "Translation:\n  %s\n", exp.Translation)
	return nil
}
