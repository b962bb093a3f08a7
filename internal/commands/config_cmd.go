package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCommand creates the config command, which prints the database and
// logging sections with the password masked.
func NewConfigCommand(global *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the database and logging configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}

			db := cfg.Database().Redacted()
			logging := cfg.Logging()
			view := map[string]any{
				"database": map[string]any{
					"server":   db.Server,
					"port":     db.Port,
					"username": db.Username,
					"password": db.Password,
				},
				"logging": map[string]any{
					"level":  logging.Level,
					"path":   logging.Path,
					"pretty": logging.Pretty,
				},
			}

			out, err := yaml.Marshal(view)
			if err != nil {
				return fmt.Errorf("failed to render config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
