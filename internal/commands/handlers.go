package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewHandlersCommand creates the handlers command
func NewHandlersCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "handlers",
		Short: "List the registered request types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(global, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			for _, t := range a.engine.Handlers() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}
