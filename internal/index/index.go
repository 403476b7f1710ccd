package index

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/xxxsen/ai360/internal/config"
	"github.com/xxxsen/ai360/internal/filestore"
	"github.com/xxxsen/ai360/internal/model"
)

// Index is the similarity searchable chunk store. Replace swaps the whole
// content atomically. Ready and Search return errors.ErrNoIndex before the
// first Replace.
type Index interface {
	Ready(ctx context.Context) error
	Replace(ctx context.Context, chunks []model.Chunk) error
	Search(ctx context.Context, query []float32, k int) ([]model.ScoredChunk, error)
}

// Deps carries the backends New can build on. PGVector is nil when no postgres is wired.
type Deps struct {
	Store    filestore.Store
	PGVector func(dsn string) (*PGVectorIndex, error)
}

func New(cfg config.IndexConfig, deps Deps) (Index, error) {
	switch cfg.Type {
	case "file":
		if deps.Store == nil {
			return nil, fmt.Errorf("file index requires a file store")
		}
		return NewSnapshotIndex(deps.Store, cfg.Key), nil
	case "pgvector":
		if deps.PGVector == nil {
			return nil, fmt.Errorf("pgvector index is not available")
		}
		return deps.PGVector(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported index type: %s", cfg.Type)
	}
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// topK ranks by descending score; ties keep chunk order.
func topK(chunks []model.Chunk, query []float32, k int) []model.ScoredChunk {
	scored := make([]model.ScoredChunk, 0, len(chunks))
	for _, c := range chunks {
		scored = append(scored, model.ScoredChunk{Chunk: c, Score: cosineSimilarity(query, c.Embedding)})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if k > 0 && k < len(scored) {
		scored = scored[:k]
	}
	return scored
}
