package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/cyphergremlin/internal/mcpserver"
)

// NewMCPCommand creates the mcp command.
func NewMCPCommand(rootOpts *RootOptions) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve translation tools over the Model Context Protocol",
		Long: `Serve translate_cypher, explain_cypher and list_procedures as MCP
tools on stdin and stdout. Logs go to stderr.

With --watch (or watch_procedures in the config file) procedure signature
files are reloaded when they change.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			formatter.Writer = cmd.ErrOrStderr() // stdout carries the protocol

			env, err := LoadEnv(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return outputCommandError(formatter, err)
			}
			defer env.Close()

			if watch || env.Config.WatchProcedures {
				if err := env.Watch(); err != nil {
					return outputCommandError(formatter, &LoadError{Code: ErrCodeProcedures, Message: err.Error()})
				}
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := mcpserver.NewServer(env.Translator, env.Registry, env.Config.Flavor, env.Logger)
			if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
				return WrapExitError(ExitFailure, "mcp server stopped", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "reload procedure signatures on change")

	return cmd
}
