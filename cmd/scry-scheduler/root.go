package main

import (
	"fmt"

	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/spf13/cobra"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "scry-scheduler",
		Short:         "Spaced-repetition scheduling engine",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"path to a config file (default: ./config.yaml if present)")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newPlanCommand(opts),
	)
	return cmd
}

// loadConfig reads configuration from the --config file, or from the working
// directory and SCRY_* environment variables.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
