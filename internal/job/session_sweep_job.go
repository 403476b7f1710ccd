package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type sessionSweeper interface {
	Sweep() int
}

// SessionSweepJob evicts idle sessions so their images and transcripts are released.
type SessionSweepJob struct {
	store sessionSweeper
}

func NewSessionSweepJob(store sessionSweeper) *SessionSweepJob {
	return &SessionSweepJob{store: store}
}

func (j *SessionSweepJob) Name() string {
	return "session_sweep"
}

func (j *SessionSweepJob) Run(ctx context.Context) error {
	live := j.store.Sweep()
	logutil.GetLogger(ctx).Debug("sessions swept", zap.Int("live", live))
	return nil
}
