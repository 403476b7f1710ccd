package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/xxxsen/ai360/internal/ai"
	"github.com/xxxsen/ai360/internal/config"
	"github.com/xxxsen/ai360/internal/db"
	"github.com/xxxsen/ai360/internal/docqa"
	"github.com/xxxsen/ai360/internal/embedcache"
	"github.com/xxxsen/ai360/internal/filestore"
	"github.com/xxxsen/ai360/internal/index"
	"github.com/xxxsen/ai360/internal/repo"
)

// buildManager wires the configured providers and wraps the embedder with
// the persistent cache first and the in-memory LRU on top.
func buildManager(cfg *config.Config, sqliteDB *sql.DB) (*ai.Manager, *repo.EmbeddingCacheRepo, error) {
	caps, err := ai.BuildCapabilities(cfg.AI)
	if err != nil {
		return nil, nil, err
	}
	embedder := caps.Embedder
	var cacheRepo *repo.EmbeddingCacheRepo
	if cfg.AI.EmbedCache.DB {
		cacheRepo = repo.NewEmbeddingCacheRepo(sqliteDB)
		embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	}
	if cfg.AI.EmbedCache.LRUSize > 0 {
		ttl := time.Duration(cfg.AI.EmbedCache.LRUTTLMinutes) * time.Minute
		embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.EmbedCache.LRUSize, ttl)
	}
	manager := ai.NewManager(caps.Chat, caps.Vision, caps.Answerer, embedder, ai.ManagerConfig{
		Timeout:       cfg.AI.Timeout,
		MaxInputChars: cfg.AI.MaxInputChars,
	})
	return manager, cacheRepo, nil
}

// buildPipeline returns the document QA pipeline and a closer for the index backend.
func buildPipeline(cfg *config.Config, manager *ai.Manager) (*docqa.Pipeline, func(), error) {
	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return nil, nil, fmt.Errorf("init file store: %w", err)
	}
	var pg *sqlx.DB
	idx, err := index.New(cfg.DocQA.Index, index.Deps{
		Store: store,
		PGVector: func(dsn string) (*index.PGVectorIndex, error) {
			conn, err := db.OpenPostgres(dsn)
			if err != nil {
				return nil, err
			}
			pg = conn
			return index.NewPGVectorIndex(conn), nil
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	closer := func() {
		if pg != nil {
			_ = pg.Close()
		}
	}
	pipeline := docqa.NewPipeline(docqa.Config{
		ChunkSize:    cfg.DocQA.ChunkSize,
		ChunkOverlap: cfg.DocQA.ChunkOverlap,
		TopK:         cfg.DocQA.TopK,
	}, manager, manager, idx)
	return pipeline, closer, nil
}
