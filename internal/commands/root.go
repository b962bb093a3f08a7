// Package commands implements the reqengine command line tool.
package commands

import (
	"github.com/spf13/cobra"
)

// GlobalOptions are the flags shared by every command.
type GlobalOptions struct {
	ConfigPath string
	LogLevel   string
}

// NewRootCommand creates the reqengine root command with all subcommands.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "reqengine",
		Short: "Dispatch typed requests to handlers with retries",
		Long: `reqengine routes request descriptions to the handler registered for their
type and retries transport failures with a fixed delay.

Configuration is read from an optional TOML or YAML file and from
REQENGINE_ environment variables, e.g. REQENGINE_ENGINE__MAXATTEMPTS=5.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (.toml, .yaml or .yml)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Override the configured log level")

	cmd.AddCommand(
		NewGetCommand(opts),
		NewPostCommand(opts),
		NewDoCommand(opts),
		NewBatchCommand(opts),
		NewConfigCommand(opts),
		NewHandlersCommand(opts),
		NewServeCommand(opts),
		NewVersionCommand(version),
	)

	return cmd
}
