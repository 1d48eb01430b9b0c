// Package cmd holds the datahealth command-line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fieldsafe/datahealth-engine/pkg/config"
	"github.com/fieldsafe/datahealth-engine/pkg/logging"
)

// version is set by the linker at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:           "datahealth",
	Short:         "Assess the data quality of safety incident schemas.",
	Long:          `Datahealth scores incident-report tables on completeness, uniqueness, consistency, validity, and timeliness, selecting the relevant checks per column.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads configuration and builds the process logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(version)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, logger, nil
}
