package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/ai360/internal/model"
	"github.com/xxxsen/ai360/internal/pkg/dbutil"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

const pgInsertBatch = 200

type PGVectorIndex struct {
	db *sqlx.DB
}

func NewPGVectorIndex(db *sqlx.DB) *PGVectorIndex {
	return &PGVectorIndex{db: db}
}

func (p *PGVectorIndex) Replace(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("index needs at least one chunk")
	}
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM doc_chunks`); err != nil {
		return err
	}
	now := time.Now().Unix()
	for start := 0; start < len(chunks); start += pgInsertBatch {
		end := start + pgInsertBatch
		if end > len(chunks) {
			end = len(chunks)
		}
		data := make([]map[string]interface{}, 0, end-start)
		for _, c := range chunks[start:end] {
			data = append(data, map[string]interface{}{
				"position":  c.Position,
				"content":   c.Content,
				"embedding": pgvector.NewVector(c.Embedding),
				"ctime":     now,
			})
		}
		sqlStr, args, err := builder.BuildInsert("doc_chunks", data)
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.FinalizePG(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type pgChunkRow struct {
	Position  int             `db:"position"`
	Content   string          `db:"content"`
	Embedding pgvector.Vector `db:"embedding"`
	Score     float32         `db:"score"`
}

func (p *PGVectorIndex) Ready(ctx context.Context) error {
	var one int
	err := p.db.GetContext(ctx, &one, `SELECT 1 FROM doc_chunks LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return appErr.ErrNoIndex
	}
	return err
}

func (p *PGVectorIndex) Search(ctx context.Context, query []float32, k int) ([]model.ScoredChunk, error) {
	const q = `
		SELECT position, content, embedding, 1 - (embedding <=> $1) AS score
		FROM doc_chunks
		ORDER BY embedding <=> $1, position
		LIMIT $2
	`
	var rows []pgChunkRow
	if err := p.db.SelectContext(ctx, &rows, q, pgvector.NewVector(query), k); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, appErr.ErrNoIndex
	}
	out := make([]model.ScoredChunk, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.ScoredChunk{
			Chunk: model.Chunk{Position: r.Position, Content: r.Content, Embedding: r.Embedding.Slice()},
			Score: r.Score,
		})
	}
	return out, nil
}
