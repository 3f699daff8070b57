// sagecore runs a deterministic fixed-step simulation core.
//
// Usage:
//
//	sagecore run                 - Run the simulation loop
//	sagecore verify <slot>       - Replay a snapshot twice and compare digests
//	sagecore inspect <slot>      - Print snapshot metadata
//
// Global flags:
//
//	--config <path>  - Config file (default: config/sagecore.toml)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rtsforge/sagecore/internal/config"
)

var flagConfig string

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sagecore",
	Short: "Deterministic fixed-step simulation core",
	Long: `sagecore drives a fixed-step game simulation: logic advances in
fixed-duration ticks on a single goroutine, presentation interpolates
between tick states, and the whole run replays bit-for-bit from a
snapshot.

Examples:
  sagecore run
  sagecore run --seed 42
  sagecore verify autosave --ticks 200
  sagecore inspect autosave`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "config/sagecore.toml", "Path to TOML config")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(inspectCmd)
}

// loadConfig reads the configured file, falling back to built-in defaults
// when it does not exist so a bare binary still runs.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(flagConfig); os.IsNotExist(err) {
		return config.Defaults(), nil
	}
	return config.Load(flagConfig)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
