package services

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/dpup/prefab/errors"
	"github.com/dpup/prefab/logging"
	"github.com/robfig/cron/v3"

	"github.com/georgia-utilities/alertbot/internal/config"
	"github.com/georgia-utilities/alertbot/internal/lib/alerts"
)

// Jobs are the scheduled bot tasks; Poster implements them
type Jobs interface {
	FetchAndSendNewAlerts(ctx context.Context) error
	SendToday(ctx context.Context) error
	SendTomorrow(ctx context.Context) error
	UpdatePostedAlerts(ctx context.Context) error
}

// Scheduler runs Jobs on cron specs evaluated in Tbilisi time
type Scheduler struct {
	jobs   Jobs
	config *config.ScheduleConfig

	mu   sync.Mutex
	ctx  context.Context
	cron *cron.Cron
}

// NewScheduler creates a new Scheduler. Jobs receive ctx.
func NewScheduler(ctx context.Context, jobs Jobs, cfg *config.ScheduleConfig) *Scheduler {
	return &Scheduler{jobs: jobs, config: cfg, ctx: ctx}
}

// cronLogger routes cron's own messages through prefab logging
type cronLogger struct {
	ctx context.Context
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logging.Debugw(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logging.Errorw(l.ctx, "cron: "+msg, append(keysAndValues, "error", err)...)
}

// Recreate stops any running schedule and installs the jobs again. The
// returned text describes what was done.
func (s *Scheduler) Recreate() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var report []string
	if s.cron != nil {
		<-s.cron.Stop().Done()
		report = append(report, "existing jobs stopped")
	}

	logger := cronLogger{ctx: s.ctx}
	c := cron.New(
		cron.WithLocation(alerts.Tbilisi),
		cron.WithLogger(logger),
		cron.WithChain(cron.SkipIfStillRunning(logger)),
	)

	entries := []struct {
		name string
		spec string
		fn   func(context.Context) error
	}{
		{"fetchAndSendNewAlerts", s.config.FetchCron, s.jobs.FetchAndSendNewAlerts},
		{"postAlertsForToday", s.config.TodayCron, s.jobs.SendToday},
		{"postAlertsForTomorrow", s.config.TomorrowCron, s.jobs.SendTomorrow},
		{"updatePostedAlerts", s.config.RenameCron, s.jobs.UpdatePostedAlerts},
	}
	for _, e := range entries {
		if e.spec == "" {
			continue
		}
		if _, err := c.AddFunc(e.spec, s.wrap(e.name, e.fn)); err != nil {
			return strings.Join(report, ", "), fmt.Errorf("invalid schedule %q for %s: %w", e.spec, e.name, err)
		}
		report = append(report, fmt.Sprintf("%s job created (%s)", e.name, e.spec))
	}

	c.Start()
	s.cron = c
	return strings.Join(report, ", "), nil
}

// Stop halts the schedule and waits for running jobs
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
}

// Entries returns the number of installed jobs
func (s *Scheduler) Entries() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return 0
	}
	return len(s.cron.Entries())
}

// wrap times a job, logs its outcome and recovers from panics
func (s *Scheduler) wrap(name string, fn func(context.Context) error) func() {
	return func() {
		ctx := s.ctx
		defer func() {
			if r := recover(); r != nil {
				err, _ := errors.ParseStack(debug.Stack())
				skipFrames := 3
				numFrames := 5
				logging.Errorw(ctx, "Scheduler: recovered from panic",
					"job", name, "error", r, "error.stack_trace", err.MinimalStack(skipFrames, numFrames))
			}
		}()

		started := time.Now()
		if err := fn(ctx); err != nil {
			logging.Errorw(ctx, "Scheduled job failed", "job", name, "error", err)
			return
		}
		logging.Infow(ctx, "Scheduled job finished", "job", name, "duration", time.Since(started).String())
	}
}
