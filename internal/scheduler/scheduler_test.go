package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingJob struct {
	runs atomic.Int32
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return "counting-job" }

func TestScheduler_RunsRegisteredJob(t *testing.T) {
	s := New(zap.NewNop())
	job := &countingJob{}

	assert.NoError(t, s.AddJob("@every 50ms", job))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestScheduler_RejectsInvalidSchedule(t *testing.T) {
	s := New(zap.NewNop())

	assert.Error(t, s.AddJob("not a schedule", &countingJob{}))
}

func TestScheduler_StopWaitsForJobs(t *testing.T) {
	s := New(zap.NewNop())
	job := &countingJob{}
	assert.NoError(t, s.AddJob("@every 50ms", job))

	s.Start()
	time.Sleep(120 * time.Millisecond)
	s.Stop()

	// No new runs after Stop has returned.
	after := job.runs.Load()
	time.Sleep(120 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load())
}
