package scheduler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ll101/project-algo-trading/pkg/config"
	"github.com/ll101/project-algo-trading/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "development", LogLevel: "error", LogFormat: "json"})
}

type fakeJob struct {
	name     string
	schedule string
	calls    int
	failFor  int
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(ctx context.Context) error {
	j.calls++
	if j.calls <= j.failFor {
		return errors.New("transient failure")
	}
	return nil
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := New(testLogger())
	job := &fakeJob{name: "nightly", schedule: "0 30 1 * * *"}

	require.NoError(t, s.AddJob(job))
	err := s.AddJob(&fakeJob{name: "nightly", schedule: "0 30 1 * * *"})
	assert.Error(t, err)
	assert.Equal(t, []string{"nightly"}, s.GetAllJobs())
}

func TestAddJobRejectsBadSchedule(t *testing.T) {
	s := New(testLogger())
	err := s.AddJob(&fakeJob{name: "broken", schedule: "not a cron spec"})
	assert.Error(t, err)
}

func TestRunJobRetriesUntilSuccess(t *testing.T) {
	s := New(testLogger()).WithRetry(3, 0)
	job := &fakeJob{name: "flaky", schedule: "0 30 1 * * *", failFor: 2}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, 3, job.calls)
	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.True(t, history.Results[0].Success)
	assert.Empty(t, history.Results[0].Error)
}

func TestRunJobRecordsFailureAfterRetries(t *testing.T) {
	s := New(testLogger()).WithRetry(2, 0)
	job := &fakeJob{name: "doomed", schedule: "0 30 1 * * *", failFor: 100}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	// 1 initial attempt plus 2 retries
	assert.Equal(t, 3, job.calls)
	history, err := s.GetJobHistory("doomed")
	require.NoError(t, err)
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Contains(t, history.Results[0].Error, "transient failure")
}

func TestRunJobUnknown(t *testing.T) {
	s := New(testLogger())
	assert.Error(t, s.RunJob("ghost"))
}

func TestGetJobHistoryUnknown(t *testing.T) {
	s := New(testLogger())
	_, err := s.GetJobHistory("ghost")
	assert.Error(t, err)
}

func TestJobHistoryKeepsLast100(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < 105; i++ {
		h.AddResult(JobResult{JobName: fmt.Sprintf("run-%d", i), Success: i%2 == 0})
	}
	assert.Len(t, h.Results, 100)
	assert.Equal(t, "run-104", h.Results[99].JobName)

	latest := h.GetLatestResults(3)
	require.Len(t, latest, 3)
	assert.Equal(t, "run-102", latest[0].JobName)

	assert.NotEmpty(t, h.GetFailedResults())
	assert.InDelta(t, 0.5, h.GetSuccessRate(), 0.02)
}

func TestGetJobStats(t *testing.T) {
	s := New(testLogger()).WithRetry(0, 0)
	job := &fakeJob{name: "nightly", schedule: "0 30 1 * * *"}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	stats := s.GetJobStats()
	require.Contains(t, stats, "nightly")
	assert.Equal(t, 1, stats["nightly"].TotalRuns)
	assert.Equal(t, 1, stats["nightly"].SuccessCount)
	assert.Equal(t, 0, stats["nightly"].FailureCount)
	require.NotNil(t, stats["nightly"].LastRun)
	assert.NotNil(t, stats["nightly"].LastSuccess)
	assert.Nil(t, stats["nightly"].LastFailure)
}
