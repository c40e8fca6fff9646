package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Runner interface {
	Run(ctx context.Context) error
}

// Scheduler runs one job every day at a fixed wall-clock time.
type Scheduler struct {
	mu     sync.Mutex
	cron   *cron.Cron
	runner Runner
	log    cron.Logger
}

func New(r Runner, logger cron.Logger) *Scheduler {
	return &Scheduler{runner: r, log: logger}
}

// Start schedules the job at hhmm in timezone. Runs stop once ctx is done.
func (s *Scheduler) Start(ctx context.Context, hhmm, timezone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("already started")
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	c := cron.New(cron.WithLocation(loc), cron.WithLogger(s.log), cron.WithChain(cron.SkipIfStillRunning(s.log)))
	_, err = c.AddFunc(CronSpecDailyHHMM(hhmm), func() {
		if ctx.Err() != nil {
			return
		}
		if err := s.runner.Run(ctx); err != nil {
			s.log.Error(err, "scheduled job failed")
		}
	})
	if err != nil {
		return err
	}
	s.cron = c
	c.Start()
	return nil
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.cron = nil
}

// Next reports when the job fires next, or the zero time if not started.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron == nil {
		return time.Time{}
	}
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// CronSpecDailyHHMM converts "HH:MM" to a five-field cron spec.
func CronSpecDailyHHMM(hhmm string) string {
	var hour, minute int
	_, _ = fmt.Sscanf(hhmm, "%d:%d", &hour, &minute)
	return fmt.Sprintf("%d %d * * *", minute, hour)
}
