package projectmetrics

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/vendorconnect/jobs/internal/job"
	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
	"github.com/vendorconnect/jobs/pkg/logger"
)

// Service recalculates the per-project baseline the dashboards compare
// against.
type Service struct {
	projects repository.ProjectRepository
	log      *logger.Logger
}

func NewService(projects repository.ProjectRepository, log *logger.Logger) *Service {
	return &Service{projects: projects, log: log}
}

func (s *Service) Run(ctx context.Context, now time.Time, statuses model.StatusSet) (job.Result, error) {
	var res job.Result
	if err := statuses.Require(model.StatusCompleted); err != nil {
		return res, apperrors.Configuration("missing task status", err)
	}
	completed := statuses.MustID(model.StatusCompleted)
	terminal := statuses.Terminal()

	projects, err := s.projects.ListActive(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to load projects: %w", err)
	}

	for _, project := range projects {
		if ctx.Err() != nil {
			break
		}
		stats, err := s.projects.TaskStats(ctx, project.ID, completed, terminal, now)
		if err != nil {
			s.log.Error(err, "failed to calculate project metrics", "project_id", project.ID.String())
			res.Failed++
			continue
		}
		if err := s.projects.UpsertBaseline(ctx, Baseline(stats, now)); err != nil {
			s.log.Error(err, "failed to store project metrics", "project_id", project.ID.String())
			res.Failed++
			continue
		}
		res.Processed++
	}
	return res, nil
}

// Baseline derives the stored figures from raw counts.
func Baseline(stats *model.ProjectTaskStats, now time.Time) *model.ProjectMetricsBaseline {
	b := &model.ProjectMetricsBaseline{
		ProjectID:      stats.ProjectID,
		TotalTasks:     stats.TotalTasks,
		CompletedTasks: stats.CompletedTasks,
		OverdueTasks:   stats.OverdueTasks,
		CalculatedAt:   now,
	}
	if stats.TotalTasks > 0 {
		b.CompletionRate = round2(float64(stats.CompletedTasks) / float64(stats.TotalTasks))
	}
	if stats.CompletionDaysRows > 0 {
		b.AvgCompletionDays = round2(stats.CompletionDaysSum / float64(stats.CompletionDaysRows))
	}
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
