package index

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/ai360/internal/filestore"
	"github.com/xxxsen/ai360/internal/model"
	appErr "github.com/xxxsen/ai360/internal/pkg/errors"
)

type snapshot struct {
	Ctime  int64         `json:"ctime"`
	Chunks []model.Chunk `json:"chunks"`
}

// SnapshotIndex keeps every chunk in memory and persists them as one JSON
// blob so a restart reloads the last processed documents.
type SnapshotIndex struct {
	store filestore.Store
	key   string

	mu     sync.RWMutex
	loaded bool
	chunks []model.Chunk
}

func NewSnapshotIndex(store filestore.Store, key string) *SnapshotIndex {
	return &SnapshotIndex{store: store, key: key}
}

func (s *SnapshotIndex) Replace(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("index needs at least one chunk")
	}
	data, err := json.Marshal(snapshot{Ctime: time.Now().Unix(), Chunks: chunks})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(ctx, s.key, bytes.NewReader(data), int64(len(data))); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	s.chunks = append([]model.Chunk(nil), chunks...)
	s.loaded = true
	logutil.GetLogger(ctx).Info("index replaced", zap.Int("chunks", len(chunks)), zap.Int("bytes", len(data)))
	return nil
}

func (s *SnapshotIndex) Ready(ctx context.Context) error {
	_, err := s.load(ctx)
	return err
}

func (s *SnapshotIndex) Search(ctx context.Context, query []float32, k int) ([]model.ScoredChunk, error) {
	chunks, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return topK(chunks, query, k), nil
}

func (s *SnapshotIndex) load(ctx context.Context) ([]model.Chunk, error) {
	s.mu.RLock()
	if s.loaded {
		chunks := s.chunks
		s.mu.RUnlock()
		return chunks, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.chunks, nil
	}
	rc, err := s.store.Open(ctx, s.key)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.ErrNoIndex
		}
		return nil, fmt.Errorf("open index: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if len(snap.Chunks) == 0 {
		return nil, appErr.ErrNoIndex
	}
	s.chunks = snap.Chunks
	s.loaded = true
	logutil.GetLogger(ctx).Info("index loaded", zap.Int("chunks", len(snap.Chunks)))
	return s.chunks, nil
}
