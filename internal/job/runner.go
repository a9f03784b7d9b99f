package job

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/vendorconnect/jobs/pkg/errors"
	"github.com/vendorconnect/jobs/pkg/logger"
	"github.com/vendorconnect/jobs/pkg/metrics"
)

// Runner runs jobs with logging, metrics and an optional per-job timeout.
type Runner struct {
	log      *logger.Logger
	metrics  *metrics.Metrics
	timeouts map[string]time.Duration
}

func NewRunner(log *logger.Logger, m *metrics.Metrics, timeouts map[string]time.Duration) *Runner {
	return &Runner{log: log, metrics: m, timeouts: timeouts}
}

// Run executes j once. A returned error is a job level failure: bad
// configuration or an unexpected error before per-item processing began.
func (r *Runner) Run(ctx context.Context, j Job) (res Result, err error) {
	name := j.Name()
	log := r.log.With("job", name)

	if timeout := r.timeouts[name]; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	log.Info("job started")

	defer func() {
		if p := recover(); p != nil {
			err = apperrors.Internal(fmt.Errorf("panic: %v", p))
		}
		elapsed := time.Since(start)
		status := statusOf(err)
		r.record(name, status, res, elapsed)

		if err != nil {
			log.Error(err, "job failed",
				"status", status,
				"duration", elapsed.String(),
			)
			return
		}
		log.Info("job finished",
			"processed", res.Processed,
			"failed", res.Failed,
			"skipped", res.Skipped,
			"duration", elapsed.String(),
		)
	}()

	return j.Run(ctx)
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case apperrors.IsConfiguration(err):
		return "config_error"
	}
	return "failed"
}

func (r *Runner) record(name, status string, res Result, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.JobRuns.WithLabelValues(name, status).Inc()
	r.metrics.JobDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	r.metrics.JobLastRun.WithLabelValues(name).SetToCurrentTime()
	r.metrics.ItemsProcessed.WithLabelValues(name).Add(float64(res.Processed))
	r.metrics.ItemsFailed.WithLabelValues(name).Add(float64(res.Failed))
	r.metrics.ItemsSkipped.WithLabelValues(name).Add(float64(res.Skipped))
}
