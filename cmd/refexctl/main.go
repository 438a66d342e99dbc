package main

import (
	"fmt"
	"os"

	"github.com/refexsite/internal/app"
	"github.com/refexsite/internal/config"
	"github.com/refexsite/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	cfg    config.AppConfig
	logger *zap.Logger
	gdb    *gorm.DB
)

var rootCmd = &cobra.Command{
	Use:           "refexctl",
	Short:         "Maintenance commands for the Refex site backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		logger, err = logging.New(cfg.LogLevel, "console")
		if err != nil {
			return err
		}
		gdb, err = app.OpenDatabase(cfg, logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if gdb != nil {
			if sqlDB, err := gdb.DB(); err == nil {
				sqlDB.Close()
			}
		}
		if logger != nil {
			logger.Sync()
		}
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(migrateUploadsCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(stockCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
