package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource"
	_ "github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource/mssql"
	_ "github.com/fieldsafe/datahealth-engine/pkg/adapters/datasource/postgres"
	"github.com/fieldsafe/datahealth-engine/pkg/config"
	"github.com/fieldsafe/datahealth-engine/pkg/database"
	"github.com/fieldsafe/datahealth-engine/pkg/llm"
	"github.com/fieldsafe/datahealth-engine/pkg/models"
	"github.com/fieldsafe/datahealth-engine/pkg/render"
	"github.com/fieldsafe/datahealth-engine/pkg/repositories"
	"github.com/fieldsafe/datahealth-engine/pkg/schema"
	"github.com/fieldsafe/datahealth-engine/pkg/selector"
	"github.com/fieldsafe/datahealth-engine/pkg/semantics"
	"github.com/fieldsafe/datahealth-engine/pkg/services"
)

var (
	assessSemantic bool
	assessJSON     bool
	assessSave     bool
)

var assessCmd = &cobra.Command{
	Use:   "assess <schema-id>",
	Short: "Run a data health assessment for one schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAssess(args[0])
	},
}

func init() {
	assessCmd.Flags().BoolVar(&assessSemantic, "semantic", false, "use the reasoning service for dimension selection")
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "emit the report as JSON")
	assessCmd.Flags().BoolVar(&assessSave, "save", false, "persist the report and alerts to the engine database")
	rootCmd.AddCommand(assessCmd)
}

func runAssess(schemaID string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := datasource.New(ctx, &cfg.Source)
	if err != nil {
		return fmt.Errorf("connect to data source: %w", err)
	}
	defer func() { _ = source.Close() }()

	sel, semanticEnabled := buildSelector(cfg, logger)
	svc := services.NewAssessmentService(
		schema.NewRegistry(), source, sel, semanticEnabled, cfg.Assessment, logger)

	report, err := svc.Assess(ctx, schemaID)
	if err != nil {
		return err
	}

	if assessSave {
		if err := saveReport(ctx, cfg, logger, report); err != nil {
			return err
		}
	}

	if assessJSON {
		return render.WriteJSON(os.Stdout, report)
	}
	return render.WriteReport(os.Stdout, report)
}

// buildSelector picks semantic selection when requested and configured,
// falling back to rule-based otherwise.
func buildSelector(cfg *config.Config, logger *zap.Logger) (selector.Selector, bool) {
	if !assessSemantic {
		return selector.NewRuleBased(), false
	}
	if !cfg.AI.IsAvailable() {
		logger.Warn("Reasoning service not configured, using rule-based selection")
		return selector.NewRuleBased(), false
	}

	client, err := llm.NewClient(&cfg.AI, logger)
	if err != nil || client == nil {
		logger.Warn("Failed to build reasoning client, using rule-based selection", zap.Error(err))
		return selector.NewRuleBased(), false
	}

	store, err := semantics.LoadOrEmpty(cfg.SemanticsPath)
	if err != nil {
		logger.Warn("Failed to load column semantics", zap.Error(err))
		store = semantics.NewEmpty()
	}

	return selector.NewSemantic(client, store,
		cfg.Assessment.MaxLLMConcurrency, cfg.Assessment.CheckTimeout, logger), true
}

func saveReport(ctx context.Context, cfg *config.Config, logger *zap.Logger, report *models.HealthReport) error {
	if !cfg.Engine.Enabled() {
		return fmt.Errorf("engine database not configured, cannot save")
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Engine.URL(),
		MaxConnections: cfg.Engine.MaxConnections,
	})
	if err != nil {
		return fmt.Errorf("connect to engine database: %w", err)
	}
	defer db.Close()

	repo := repositories.NewHistoryRepository(db)
	record, err := repo.SaveAssessment(ctx, report)
	if err != nil {
		return err
	}

	alerts := services.EvaluateAlerts(report, cfg.Assessment)
	if err := repo.SaveAlerts(ctx, alerts); err != nil {
		return err
	}

	logger.Info("Saved assessment",
		zap.String("assessment_id", record.ID.String()),
		zap.Int("alerts", len(alerts)))
	return nil
}
