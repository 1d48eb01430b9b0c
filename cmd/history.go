package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldsafe/datahealth-engine/pkg/database"
	"github.com/fieldsafe/datahealth-engine/pkg/render"
	"github.com/fieldsafe/datahealth-engine/pkg/repositories"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <schema-id>",
	Short: "Show recent assessments for one schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(args[0])
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "number of assessments to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(schemaID string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !cfg.Engine.Enabled() {
		return fmt.Errorf("engine database not configured")
	}

	ctx := context.Background()
	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Engine.URL(),
		MaxConnections: cfg.Engine.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("connect to engine database: %w", err)
	}
	defer db.Close()

	records, err := repositories.NewHistoryRepository(db).ListRecent(ctx, schemaID, historyLimit)
	if err != nil {
		return err
	}
	return render.WriteHistory(os.Stdout, records)
}
