package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countJob struct {
	name string
	runs chan struct{}
}

func (j *countJob) Name() string {
	return j.name
}

func (j *countJob) Run(ctx context.Context) error {
	j.runs <- struct{}{}
	return nil
}

func TestCronSchedulerAddJob(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "a", runs: make(chan struct{}, 1)}
	require.NoError(t, s.AddJob(job, "@every 1h"))
	require.Error(t, s.AddJob(job, "@every 1h"))
	require.Error(t, s.AddJob(&countJob{name: "b"}, "not a spec"))
	require.Contains(t, s.Jobs(), "a")
}

func TestCronSchedulerRunsJob(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "tick", runs: make(chan struct{}, 4)}
	require.NoError(t, s.AddJob(job, "@every 1s"))
	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-job.runs:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
