package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type cacheDeleter interface {
	DeleteBefore(ctx context.Context, cutoff int64) (int64, error)
}

// EmbeddingCacheCleanupJob drops persisted embeddings older than the retention window.
type EmbeddingCacheCleanupJob struct {
	repo   cacheDeleter
	maxAge time.Duration
	now    func() time.Time
}

func NewEmbeddingCacheCleanupJob(repo cacheDeleter, maxAgeDays int) *EmbeddingCacheCleanupJob {
	if maxAgeDays <= 0 {
		maxAgeDays = 30
	}
	return &EmbeddingCacheCleanupJob{
		repo:   repo,
		maxAge: time.Duration(maxAgeDays) * 24 * time.Hour,
		now:    time.Now,
	}
}

func (j *EmbeddingCacheCleanupJob) Name() string {
	return "embedding_cache_cleanup"
}

func (j *EmbeddingCacheCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	cutoff := j.now().Add(-j.maxAge).Unix()
	removed, err := j.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		logutil.GetLogger(ctx).Info("embedding cache pruned", zap.Int64("removed", removed), zap.Int64("cutoff", cutoff))
	}
	return nil
}
