package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countJob struct {
	name  string
	runs  atomic.Int32
	block chan struct{}
	err   error
}

func (j *countJob) Name() string {
	return j.name
}

func (j *countJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return j.err
}

type panicJob struct{}

func (j *panicJob) Name() string {
	return "panicker"
}

func (j *panicJob) Run(ctx context.Context) error {
	panic("boom")
}

func TestAddJobRejectsDuplicateName(t *testing.T) {
	s := NewCronScheduler()
	require.NoError(t, s.AddJob(&countJob{name: "cleanup"}, "30 3 * * *"))
	require.Error(t, s.AddJob(&countJob{name: "cleanup"}, "0 4 * * *"))
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&countJob{name: "cleanup"}, "not a cron spec"))
}

func TestRunnerDropsOverlappingTick(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "slow", block: make(chan struct{})}
	tick := s.runner(job)

	go tick()
	require.Eventually(t, func() bool {
		return job.runs.Load() == 1
	}, time.Second, time.Millisecond)

	// second tick while the first is still blocked must not run the job
	tick()
	require.Equal(t, int32(1), job.runs.Load())

	close(job.block)
	require.Eventually(t, func() bool {
		tick()
		return job.runs.Load() >= 2
	}, time.Second, time.Millisecond)
}

func TestRunnerRecoversPanic(t *testing.T) {
	s := NewCronScheduler()
	tick := s.runner(&panicJob{})
	require.NotPanics(t, tick)
}

func TestRunnerReportsJobError(t *testing.T) {
	s := NewCronScheduler()
	job := &countJob{name: "failing", err: fmt.Errorf("db gone")}
	tick := s.runner(job)
	tick()
	require.Equal(t, int32(1), job.runs.Load())
}
