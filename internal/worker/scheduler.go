package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vendorconnect/jobs/internal/job"
	"github.com/vendorconnect/jobs/pkg/logger"
)

// Scheduler runs jobs on cron specs (with a seconds field) until its context
// is cancelled. A job still running when its next tick comes is skipped, and
// a panicking job is logged without taking the daemon down.
type Scheduler struct {
	cron   *cron.Cron
	runner *job.Runner
	log    *logger.Logger

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

func NewScheduler(runner *job.Runner, loc *time.Location, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		runner:  runner,
		log:     log,
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
	}
}

// Register adds j on spec. Registering the same job name twice is an error.
func (s *Scheduler) Register(spec string, j job.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[j.Name()]; exists {
		return fmt.Errorf("job %s already scheduled", j.Name())
	}
	id, err := s.cron.AddFunc(spec, func() {
		// errors are logged and measured by the runner
		_, _ = s.runner.Run(s.context(), j)
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q for %s: %w", spec, j.Name(), err)
	}
	s.entries[j.Name()] = id
	return nil
}

// Next returns the next planned run of a registered job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) context() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Start blocks until ctx is done, then waits for running jobs to return.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	for name, id := range s.entries {
		s.log.Info("job scheduled", "job", name, "next", s.cron.Entry(id).Next.Format(time.RFC3339))
	}

	<-ctx.Done()
	s.log.Info("stopping scheduler, waiting for running jobs")
	<-s.cron.Stop().Done()
}
