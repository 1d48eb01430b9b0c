package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldsafe/datahealth-engine/pkg/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending engine database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		if !cfg.Engine.Enabled() {
			return fmt.Errorf("engine database not configured")
		}
		return database.RunMigrations(cfg.Engine.URL(), cfg.Engine.MigrationsPath, logger)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
