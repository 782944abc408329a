package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futureeconomy/indices/pkg/logger"
)

type fakeJob struct {
	name     string
	schedule string
	runs     atomic.Int32
	failures int32 // fail the first N runs
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(context.Context) error {
	n := j.runs.Add(1)
	if n <= j.failures {
		return errors.New("transient failure")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.NewNop()).WithRetry(2, time.Millisecond)
}

func TestAddJob_Duplicate(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&fakeJob{name: "refresh", schedule: "@daily"}))
	assert.Error(t, s.AddJob(&fakeJob{name: "refresh", schedule: "@daily"}))
	assert.Equal(t, []string{"refresh"}, s.Jobs())
}

func TestAddJob_InvalidSchedule(t *testing.T) {
	s := newTestScheduler()
	err := s.AddJob(&fakeJob{name: "broken", schedule: "not a cron expr"})
	assert.Error(t, err)
}

func TestRunJob_NotFound(t *testing.T) {
	s := newTestScheduler()
	assert.Error(t, s.RunJob("missing"))
}

func TestRunJob_RecordsSuccess(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "refresh", schedule: "@daily"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("refresh"))

	require.Eventually(t, func() bool {
		history, err := s.History("refresh")
		return err == nil && len(history.Results) == 1
	}, time.Second, 10*time.Millisecond)

	history, err := s.History("refresh")
	require.NoError(t, err)
	result := history.Results[0]
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestRunJob_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("flaky"))

	require.Eventually(t, func() bool {
		history, _ := s.History("flaky")
		return history != nil && len(history.Results) == 1
	}, time.Second, 10*time.Millisecond)

	history, _ := s.History("flaky")
	assert.True(t, history.Results[0].Success)
	assert.Equal(t, int32(3), job.runs.Load())
}

func TestRunJob_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler()
	job := &fakeJob{name: "doomed", schedule: "@daily", failures: 100}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("doomed"))

	require.Eventually(t, func() bool {
		history, _ := s.History("doomed")
		return history != nil && len(history.Results) == 1
	}, time.Second, 10*time.Millisecond)

	history, _ := s.History("doomed")
	result := history.Results[0]
	assert.False(t, result.Success)
	assert.Equal(t, "transient failure", result.Error)
	assert.Equal(t, int32(3), job.runs.Load()) // initial + 2 retries
}

func TestHistory_NotFound(t *testing.T) {
	s := newTestScheduler()
	_, err := s.History("missing")
	assert.Error(t, err)
}

func TestJobHistory_Bounds(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < maxHistory+20; i++ {
		h.AddResult(JobResult{JobName: "x", Success: i%2 == 0})
	}

	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.LatestResults(10), 10)
	assert.InDelta(t, 0.5, h.SuccessRate(), 0.05)
}

func TestJobHistory_FailedResults(t *testing.T) {
	h := &JobHistory{}
	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: false, Error: "boom"})
	h.AddResult(JobResult{Success: true})

	failed := h.FailedResults()
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].Error)
}
