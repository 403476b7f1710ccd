package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/config"
	"github.com/xxxsen/ai360/internal/db"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "ai360",
		Short: "360AI backend server",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run 360AI server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sqliteDB, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			if sqliteDB != nil {
				defer sqliteDB.Close()
			}
			return runServer(cfg, sqliteDB)
		},
	}

	indexCmd := &cobra.Command{
		Use:   "index [files...]",
		Short: "build the document index from local files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sqliteDB, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			if sqliteDB != nil {
				defer sqliteDB.Close()
			}
			return runIndex(cmd.Context(), cfg, sqliteDB, args)
		},
	}

	rootCmd.AddCommand(runCmd, indexCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

// bootstrap loads .env and the config, starts logging and opens the sqlite
// database when one is configured.
func bootstrap(configPath string) (*config.Config, *sql.DB, error) {
	if configPath == "" {
		return nil, nil, fmt.Errorf("--config is required")
	}
	envErr := godotenv.Load()
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	log := logutil.GetLogger(context.Background())
	log.Info("config loaded", zap.String("config", configPath))
	if envErr != nil && !errors.Is(envErr, os.ErrNotExist) {
		log.Warn("load .env failed", zap.Error(envErr))
	}
	if cfg.DBPath == "" {
		return cfg, nil, nil
	}
	sqliteDB, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	return cfg, sqliteDB, nil
}
