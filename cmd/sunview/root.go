package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yejunweb/3d-solar-threejs/internal/config"
	"github.com/yejunweb/3d-solar-threejs/internal/logger"
)

var (
	flags *config.Flags
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sunview",
	Short: "Sunlight and view analysis for residential models",
	Long: `sunview classifies the buildings and housing units of a 3D model, counts
how many sampled minutes of a solar-term day each unit receives direct sun,
and measures the unobstructed area each unit can see.

Configuration is read from defaults, then sunview.yaml, then SUNVIEW_*
environment variables (a .env file is honoured), then flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	flags = config.BindFlags(rootCmd.PersistentFlags())
}

// setup loads configuration and starts logging before any subcommand runs.
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFiles(".env"); err != nil {
		return fmt.Errorf("loading .env: %w", err)
	}

	var err error
	cfg, err = config.Load(flags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Setup(cfg.LoggerOptions()); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	logger.Debug("configuration loaded", zap.String("command", cmd.Name()), zap.Any("config", cfg))
	return nil
}
