package main

import (
	"github.com/phrazzld/scry-scheduler/internal/platform/logger"
	"github.com/phrazzld/scry-scheduler/internal/platform/postgres"
	"github.com/spf13/cobra"
)

func newMigrateCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status|version|reset]",
		Short:     "Apply PostgreSQL schema migrations",
		Args:      cobra.RangeArgs(0, 1),
		ValidArgs: []string{"up", "down", "status", "version", "reset"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			log, err := logger.SetupWithWriter(cfg.Server, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			db, err := openPostgres(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return postgres.Migrate(cmd.Context(), db, command, log)
		},
	}
}
