package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/config"
	"github.com/xxxsen/ai360/internal/docqa"
)

// runIndex replaces the shared document index with the given files, the same
// way an upload through the pdf mode does.
func runIndex(ctx context.Context, cfg *config.Config, sqliteDB *sql.DB, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	manager, _, err := buildManager(cfg, sqliteDB)
	if err != nil {
		return err
	}
	pipeline, closeIndex, err := buildPipeline(cfg, manager)
	if err != nil {
		return err
	}
	defer closeIndex()

	docs := make([]docqa.Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, docqa.Document{Name: filepath.Base(p), Data: data})
	}
	res, err := pipeline.Process(ctx, docs)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	logutil.GetLogger(ctx).Info("index built",
		zap.Int("documents", res.Documents),
		zap.Int("characters", res.Characters),
		zap.Int("chunks", res.Chunks),
		zap.Int64("elapsed_ms", res.Elapsed),
	)
	return nil
}
