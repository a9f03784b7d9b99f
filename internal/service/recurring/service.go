package recurring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vendorconnect/jobs/internal/job"
	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	"github.com/vendorconnect/jobs/internal/schedule"
	"github.com/vendorconnect/jobs/internal/service/occurrence"
	"github.com/vendorconnect/jobs/pkg/logger"
)

// Service walks every active series and creates the occurrences that are due.
type Service struct {
	tasks      repository.TaskRepository
	occurrence occurrence.Service
	log        *logger.Logger
}

func NewService(tasks repository.TaskRepository, occ occurrence.Service, log *logger.Logger) *Service {
	return &Service{
		tasks:      tasks,
		occurrence: occ,
		log:        log,
	}
}

// Run sweeps once. Errors on a single series are logged and counted; only a
// failure to list the series fails the run.
func (s *Service) Run(ctx context.Context, now time.Time) (job.Result, error) {
	var res job.Result

	series, err := s.tasks.ListActiveSeries(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load repeating tasks: %w", err)
	}

	for _, task := range series {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		s.process(ctx, task, now, &res)
	}
	return res, nil
}

func (s *Service) process(ctx context.Context, task *model.Task, now time.Time, res *job.Result) {
	log := s.log.With("task_id", task.ID.String())

	next, outcome := schedule.NextOccurrence(task.Series(), now)
	if outcome == schedule.Missed {
		next, outcome = schedule.FirstAfter(task.Series(), now)
		if outcome == schedule.Due {
			log.Warn("series missed occurrences, resuming without backfill", "next", next.Format(time.DateOnly))
		}
	}

	switch outcome {
	case schedule.Due:
	case schedule.Ended:
		s.deactivate(ctx, task, log, res)
		return
	default:
		res.Skipped++
		return
	}

	child, err := s.occurrence.Materialize(ctx, task, next)
	switch {
	case errors.Is(err, occurrence.ErrOccurrenceExists):
		log.Info("occurrence already exists", "date", next.Format(time.DateOnly))
		res.Skipped++
	case err != nil:
		log.Error(err, "failed to generate repeating task", "date", next.Format(time.DateOnly))
		res.Failed++
	default:
		log.Info("generated repeating task",
			"occurrence_id", child.ID.String(),
			"title", child.Title,
			"fields_version", model.OccurrenceFieldsVersion,
		)
		res.Processed++
	}
}

func (s *Service) deactivate(ctx context.Context, task *model.Task, log *logger.Logger, res *job.Result) {
	if err := s.tasks.DeactivateSeries(ctx, task.ID); err != nil {
		log.Error(err, "failed to deactivate ended series")
		res.Failed++
		return
	}
	log.Info("deactivated ended series")
	res.Processed++
}
