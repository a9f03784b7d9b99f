package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
)

type projectRepository struct {
	BaseRepository
}

func NewProjectRepository(base BaseRepository) repository.ProjectRepository {
	return &projectRepository{BaseRepository: base}
}

func (r *projectRepository) ListActive(ctx context.Context) ([]*model.Project, error) {
	var projects []*model.Project
	query := `
		SELECT id, admin_id, title, created_at, updated_at, deleted_at
		FROM projects
		WHERE deleted_at IS NULL
		ORDER BY created_at`
	if err := r.db.SelectContext(ctx, &projects, query); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (r *projectRepository) TaskStats(ctx context.Context, projectID, completedID uuid.UUID, terminal []uuid.UUID, now time.Time) (*model.ProjectTaskStats, error) {
	stats := model.ProjectTaskStats{ProjectID: projectID}
	query := `
		SELECT
			COUNT(*) AS total_tasks,
			COUNT(*) FILTER (WHERE status_id = $2) AS completed_tasks,
			COUNT(*) FILTER (
				WHERE end_date < $3
				  AND (status_id IS NULL OR NOT (status_id = ANY($4::uuid[])))
			) AS overdue_tasks,
			COALESCE(SUM(EXTRACT(EPOCH FROM (updated_at - COALESCE(start_date, created_at))) / 86400)
				FILTER (WHERE status_id = $2), 0) AS completion_days_sum,
			COUNT(*) FILTER (WHERE status_id = $2) AS completion_days_rows
		FROM tasks
		WHERE project_id = $1 AND deleted_at IS NULL`
	row := r.db.QueryRowxContext(ctx, query, projectID, completedID, now, pq.Array(uuidArray(terminal)))
	if err := row.Scan(
		&stats.TotalTasks,
		&stats.CompletedTasks,
		&stats.OverdueTasks,
		&stats.CompletionDaysSum,
		&stats.CompletionDaysRows,
	); err != nil {
		return nil, fmt.Errorf("failed to aggregate project tasks: %w", err)
	}
	return &stats, nil
}

func (r *projectRepository) UpsertBaseline(ctx context.Context, baseline *model.ProjectMetricsBaseline) error {
	query := `
		INSERT INTO project_metrics_baselines (
			project_id, total_tasks, completed_tasks, overdue_tasks,
			completion_rate, avg_completion_days, calculated_at
		) VALUES (
			:project_id, :total_tasks, :completed_tasks, :overdue_tasks,
			:completion_rate, :avg_completion_days, :calculated_at
		)
		ON CONFLICT (project_id) DO UPDATE SET
			total_tasks = EXCLUDED.total_tasks,
			completed_tasks = EXCLUDED.completed_tasks,
			overdue_tasks = EXCLUDED.overdue_tasks,
			completion_rate = EXCLUDED.completion_rate,
			avg_completion_days = EXCLUDED.avg_completion_days,
			calculated_at = EXCLUDED.calculated_at`
	if _, err := r.db.NamedExecContext(ctx, query, baseline); err != nil {
		return fmt.Errorf("failed to upsert project baseline: %w", err)
	}
	return nil
}
