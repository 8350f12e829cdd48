package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/georgia-utilities/alertbot/internal/config"
)

// fakeJobs counts job invocations
type fakeJobs struct {
	fetch, today, tomorrow, rename atomic.Int32
	err                            error
	panicOnFetch                   bool
}

func (j *fakeJobs) FetchAndSendNewAlerts(context.Context) error {
	j.fetch.Add(1)
	if j.panicOnFetch {
		panic("boom")
	}
	return j.err
}

func (j *fakeJobs) SendToday(context.Context) error {
	j.today.Add(1)
	return j.err
}

func (j *fakeJobs) SendTomorrow(context.Context) error {
	j.tomorrow.Add(1)
	return j.err
}

func (j *fakeJobs) UpdatePostedAlerts(context.Context) error {
	j.rename.Add(1)
	return j.err
}

func TestScheduler_Recreate(t *testing.T) {
	cfg := config.DefaultConfig().Schedule
	s := NewScheduler(testContext(), &fakeJobs{}, &cfg)
	defer s.Stop()

	report, err := s.Recreate()
	require.NoError(t, err)
	assert.Contains(t, report, "fetchAndSendNewAlerts job created (*/10 * * * *)")
	assert.NotContains(t, report, "existing jobs stopped")
	assert.Equal(t, 4, s.Entries())

	report, err = s.Recreate()
	require.NoError(t, err)
	assert.Contains(t, report, "existing jobs stopped")
	assert.Equal(t, 4, s.Entries())

	s.Stop()
	assert.Equal(t, 0, s.Entries())
}

func TestScheduler_SkipsEmptySpecs(t *testing.T) {
	cfg := config.ScheduleConfig{FetchCron: "*/5 * * * *"}
	s := NewScheduler(testContext(), &fakeJobs{}, &cfg)
	defer s.Stop()

	_, err := s.Recreate()
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())
}

func TestScheduler_InvalidSpec(t *testing.T) {
	cfg := config.ScheduleConfig{FetchCron: "every ten minutes"}
	s := NewScheduler(testContext(), &fakeJobs{}, &cfg)

	_, err := s.Recreate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetchAndSendNewAlerts")
	assert.Equal(t, 0, s.Entries())
}

func TestScheduler_WrapRecoversAndLogs(t *testing.T) {
	jobs := &fakeJobs{panicOnFetch: true}
	s := NewScheduler(testContext(), jobs, &config.ScheduleConfig{})

	assert.NotPanics(t, s.wrap("fetch", jobs.FetchAndSendNewAlerts))
	assert.Equal(t, int32(1), jobs.fetch.Load())

	jobs.err = errors.New("telegram down")
	assert.NotPanics(t, s.wrap("today", jobs.SendToday))
	assert.Equal(t, int32(1), jobs.today.Load())
}
