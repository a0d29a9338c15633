package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/slotplan/config"
	"github.com/kilianp07/slotplan/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "slotplan",
	Short:         "Half-day slot planner for concurrent projects",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "planner.yaml", "planner file (yaml or json)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)
	return cfg, nil
}
