package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cyphergremlin/internal/facade"
	"github.com/roach88/cyphergremlin/internal/translate"
)

// queryFlags are the per-query flags shared by translate and explain.
type queryFlags struct {
	File     string
	Flavor   string
	Encoding string
	Params   []string
}

func (q *queryFlags) register(cmd *cobra.Command, encoding bool) {
	cmd.Flags().StringVarP(&q.File, "file", "f", "", "read the query from a file")
	cmd.Flags().StringVar(&q.Flavor, "flavor", "", "target flavor (overrides config)")
	cmd.Flags().StringArrayVarP(&q.Params, "param", "p", nil, "query parameter as key=value (repeatable)")
	if encoding {
		cmd.Flags().StringVarP(&q.Encoding, "encoding", "e", "", "output encoding: text|bytecode (overrides config)")
	}
}

// request assembles a facade request from flags, arguments and config.
func (q *queryFlags) request(env *Env, args []string, in io.Reader) (facade.Request, error) {
	query, err := ReadQuery(args, q.File, in)
	if err != nil {
		return facade.Request{}, err
	}
	params, err := ParseParams(q.Params)
	if err != nil {
		return facade.Request{}, err
	}
	req := facade.Request{
		Query:    query,
		Params:   params,
		Flavor:   env.Config.Flavor,
		Encoding: env.Config.Encoding,
	}
	if q.Flavor != "" {
		req.Flavor = q.Flavor
	}
	if q.Encoding != "" {
		req.Encoding = q.Encoding
	}
	return req, nil
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "translate [query|-]",
		Short: "Translate a Cypher query to Gremlin",
		Long: `Translate a Cypher query into a Gremlin traversal.

The query is taken from the argument, from --file, or from stdin when the
argument is "-". Parameters are passed as --param key=value and bound into
the traversal by name.`,
		Example: `  cyphergremlin translate "MATCH (n:person) RETURN n.name"
  cyphergremlin translate -p limit=5 "MATCH (n) RETURN n LIMIT $limit"
  cyphergremlin translate --flavor cosmosdb --encoding bytecode -f query.cyp`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(rootOpts, flags, args, cmd)
		},
	}
	flags.register(cmd, true)

	return cmd
}

// TranslateResult is the JSON payload of a successful translation.
type TranslateResult struct {
	RequestID   string                `json:"request_id"`
	Translation string                `json:"translation"`
	Columns     translate.ReturnTable `json:"columns"`
	Options     []string              `json:"options,omitempty"`
	Cached      bool                  `json:"cached"`
}

func runTranslate(opts *RootOptions, flags *queryFlags, args []string, cmd *cobra.Command) error {
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

	resp, err := env.Translator.Translate(contextOf(cmd), req)
	if err != nil {
		return outputQueryError(formatter, err)
	}
	formatter.VerboseLog("request %s: %d column(s), cached=%t", resp.RequestID, len(resp.Columns), resp.Cached)

	if formatter.Format == "json" {
		return formatter.SuccessWithID(resp.RequestID, TranslateResult{
			RequestID:   resp.RequestID,
			Translation: resp.Translation,
			Columns:     resp.Columns,
			Options:     resp.Options,
			Cached:      resp.Cached,
		})
	}
	fmt.Fprintln(formatter.Writer, resp.Translation)
	if formatter.Verbose && len(resp.Columns) > 0 {
		fmt.Fprintf(formatter.GetErrWriter(), "columns: %s\n", formatColumns(resp.Columns))
	}
	return nil
}

func formatColumns(cols translate.ReturnTable) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprintf("%s %s", c.Name, c.Type)
	}
	return strings.Join(parts, ", ")
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// outputCommandError reports a setup problem (exit code 2).
func outputCommandError(formatter *OutputFormatter, err error) error {
	code, details := classify(err)
	msg := errorMessage(err)
	_ = formatter.Error(code, msg, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, msg))
}

// outputQueryError reports a query that failed to translate (exit code 1).
func outputQueryError(formatter *OutputFormatter, err error) error {
	code, details := classify(err)
	if code == ErrCodeGeneric || code == ErrCodeNotFound || code == ErrCodeConfig {
		return outputCommandError(formatter, err)
	}
	_ = formatter.Error(code, err.Error(), details)
	return WrapExitError(ExitFailure, code, err)
}
