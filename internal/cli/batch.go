package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/roach88/cyphergremlin/internal/facade"
)

// BatchFile is a YAML list of queries translated together.
//
//	flavor: cosmosdb
//	queries:
//	  - name: people
//	    query: MATCH (n:person) RETURN n.name
//	  - name: limited
//	    query: MATCH (n) RETURN n LIMIT $n
//	    params: {n: 3}
//	    encoding: bytecode
type BatchFile struct {
	Flavor   string       `yaml:"flavor"`
	Encoding string       `yaml:"encoding"`
	Queries  []BatchQuery `yaml:"queries"`
}

// BatchQuery is one entry of a batch file. Empty flavor and encoding fall
// back to the file, then to the config.
type BatchQuery struct {
	Name     string         `yaml:"name"`
	Query    string         `yaml:"query"`
	Params   map[string]any `yaml:"params"`
	Flavor   string         `yaml:"flavor"`
	Encoding string         `yaml:"encoding"`
}

// BatchItem is the outcome of one batch query.
type BatchItem struct {
	Name        string    `json:"name"`
	Translation string    `json:"translation,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
	Error       *CLIError `json:"error,omitempty"`
}

// BatchResult is the JSON payload of the batch command.
type BatchResult struct {
	Total   int         `json:"total"`
	Failed  int         `json:"failed"`
	Results []BatchItem `json:"results"`
}

type batchOptions struct {
	Jobs     int
	FailFast bool
}

// NewBatchCommand creates the batch command.
func NewBatchCommand(rootOpts *RootOptions) *cobra.Command {
	bopts := &batchOptions{}

	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Translate a YAML file of queries concurrently",
		Long: `Translate every query in a YAML batch file.

Queries run concurrently, bounded by --jobs, and results are reported in
file order. The command exits 1 if any query fails.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(rootOpts, bopts, args[0], cmd)
		},
	}

	cmd.Flags().IntVarP(&bopts.Jobs, "jobs", "j", runtime.GOMAXPROCS(0), "maximum concurrent translations")
	cmd.Flags().BoolVar(&bopts.FailFast, "fail-fast", false, "stop after the first failed query")

	return cmd
}

// LoadBatch decodes a batch file. Unknown keys are rejected.
func LoadBatch(r io.Reader) (*BatchFile, error) {
	var bf BatchFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&bf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Code: ErrCodeNoQuery, Message: "batch file is empty"}
		}
		return nil, &LoadError{Code: ErrCodeInvalidArgs, Message: fmt.Sprintf("parse batch file: %v", err)}
	}
	if len(bf.Queries) == 0 {
		return nil, &LoadError{Code: ErrCodeNoQuery, Message: "batch file has no queries"}
	}
	for i := range bf.Queries {
		if bf.Queries[i].Name == "" {
			bf.Queries[i].Name = fmt.Sprintf("query-%d", i+1)
		}
	}
	return &bf, nil
}

func runBatch(opts *RootOptions, bopts *batchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("batch file not found: %s", path)}
		}
		return outputCommandError(formatter, err)
	}
	bf, err := LoadBatch(f)
	f.Close()
	if err != nil {
		return outputCommandError(formatter, err)
	}

	env, err := LoadEnv(opts, cmd.ErrOrStderr())
	if err != nil {
		return outputCommandError(formatter, err)
	}
	defer env.Close()

	result := translateBatch(contextOf(cmd), env, bf, bopts)
	formatter.VerboseLog("translated %d queries, %d failed", result.Total, result.Failed)

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, item := range result.Results {
			if item.Error != nil {
				fmt.Fprintf(formatter.Writer, "✗ %s: [%s] %s\n", item.Name, item.Error.Code, item.Error.Message)
				continue
			}
			fmt.Fprintf(formatter.Writer, "✓ %s\n  %s\n", item.Name, item.Translation)
		}
		fmt.Fprintf(formatter.Writer, "\n%d queries, %d failed\n", result.Total, result.Failed)
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d queries failed", result.Failed, result.Total))
	}
	return nil
}

// translateBatch runs the queries on a bounded errgroup. Results keep file
// order. With FailFast the first failure cancels the queries not yet
// started.
func translateBatch(ctx context.Context, env *Env, bf *BatchFile, bopts *batchOptions) BatchResult {
	results := make([]BatchItem, len(bf.Queries))
	g, gctx := errgroup.WithContext(ctx)
	if bopts.Jobs > 0 {
		g.SetLimit(bopts.Jobs)
	}

	for i, q := range bf.Queries {
		g.Go(func() error {
			results[i] = BatchItem{Name: q.Name}
			if err := gctx.Err(); err != nil {
				results[i].Error = &CLIError{Code: ErrCodeGeneric, Message: "skipped: " + err.Error()}
				return nil
			}
			resp, err := env.Translator.Translate(gctx, batchRequest(env, bf, q))
			if err != nil {
				code, details := classify(err)
				results[i].Error = &CLIError{Code: code, Message: err.Error(), Details: details}
				if bopts.FailFast {
					return err
				}
				return nil
			}
			results[i].Translation = resp.Translation
			results[i].Cached = resp.Cached
			return nil
		})
	}
	_ = g.Wait() // failures are recorded per item

	out := BatchResult{Total: len(results), Results: results}
	for _, r := range results {
		if r.Error != nil {
			out.Failed++
		}
	}
	return out
}

func batchRequest(env *Env, bf *BatchFile, q BatchQuery) facade.Request {
	req := facade.Request{
		Query:    q.Query,
		Params:   q.Params,
		Flavor:   env.Config.Flavor,
		Encoding: env.Config.Encoding,
	}
	if bf.Flavor != "" {
		req.Flavor = bf.Flavor
	}
	if bf.Encoding != "" {
		req.Encoding = bf.Encoding
	}
	if q.Flavor != "" {
		req.Flavor = q.Flavor
	}
	if q.Encoding != "" {
		req.Encoding = q.Encoding
	}
	return req
}
