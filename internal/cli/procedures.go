package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/cyphergremlin/internal/procedures"
)

// ProcedureList is the JSON payload of "procedures list".
type ProcedureList struct {
	Procedures []ProcedureInfo `json:"procedures"`
}

// ProcedureInfo describes one registered signature.
type ProcedureInfo struct {
	Name      string             `json:"name"`
	Signature string             `json:"signature"`
	Params    []procedures.Field `json:"params"`
	Results   []procedures.Field `json:"results"`
}

// CheckResult is the JSON payload of "procedures check".
type CheckResult struct {
	Valid bool   `json:"valid"`
	Count int    `json:"count"`
	File  string `json:"file,omitempty"`
	Line  int    `json:"line,omitempty"`
}

// NewProceduresCommand creates the procedures command group.
func NewProceduresCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "procedures",
		Short: "Inspect procedure signatures",
		Long: `Inspect the procedure signatures queries are checked against.

Signatures come from .cue and .yaml files in the configured procedures
directory, on top of the built-in schema procedures.`,
	}

	cmd.AddCommand(newProceduresListCommand(rootOpts))
	cmd.AddCommand(newProceduresCheckCommand(rootOpts))

	return cmd
}

func newProceduresListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered procedures",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			env, err := LoadEnv(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return outputCommandError(formatter, err)
			}
			defer env.Close()

			sigs := env.Registry.Snapshot().Signatures()
			if formatter.Format == "json" {
				list := ProcedureList{Procedures: make([]ProcedureInfo, len(sigs))}
				for i, s := range sigs {
					list.Procedures[i] = ProcedureInfo{Name: s.Name, Signature: s.String(), Params: s.Params, Results: s.Results}
				}
				return formatter.Success(list)
			}
			for _, s := range sigs {
				fmt.Fprintln(formatter.Writer, s.String())
			}
			return nil
		},
	}
}

func newProceduresCheckCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <dir|file>",
		Short: "Validate signature files without starting a translator",
		Long: `Validate procedure signature files.

Reads a directory of .cue and .yaml files, or a single file, and reports
the first error with its position.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProceduresCheck(rootOpts, args[0], cmd)
		},
	}
}

func runProceduresCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	info, err := os.Stat(path)
	if err != nil {
		return outputCommandError(formatter, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("path not found: %s", path)})
	}

	var sigs []procedures.Signature
	if info.IsDir() {
		sigs, err = procedures.LoadDir(path)
	} else {
		sigs, err = procedures.LoadFile(path)
	}
	if err == nil {
		// Malformed signatures surface when building a snapshot.
		_, err = procedures.NewSnapshot(sigs...)
	}

	if err != nil {
		result := CheckResult{Valid: false}
		var loadErr *procedures.LoadError
		if errors.As(err, &loadErr) {
			result.File = loadErr.File
			if loadErr.Pos.IsValid() {
				result.Line = loadErr.Pos.Line()
			}
		}
		_ = formatter.Error(ErrCodeProcedures, err.Error(), result)
		return WrapExitError(ExitFailure, "invalid procedure signatures", err)
	}

	formatter.VerboseLog("loaded %d signature(s) from %s", len(sigs), path)
	if formatter.Format == "json" {
		return formatter.Success(CheckResult{Valid: true, Count: len(sigs)})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d procedure signature(s) valid\n", len(sigs))
	return nil
}
