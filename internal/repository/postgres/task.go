package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
)

const taskColumns = `
	t.id, t.admin_id, t.title, t.description, t.note, t.status_id, t.priority_id,
	p.title AS priority_name, t.task_type_id, t.project_id, t.quantity, t.close_deadline,
	t.start_date, t.end_date, t.created_by, t.parent_id, t.is_repeating,
	t.repeat_frequency, t.repeat_interval, t.repeat_until, t.repeat_active,
	t.last_repeated_at, t.created_at, t.updated_at, t.deleted_at`

const taskFrom = `FROM tasks t LEFT JOIN priorities p ON p.id = t.priority_id`

type taskRepository struct {
	BaseRepository
}

func NewTaskRepository(base BaseRepository) repository.TaskRepository {
	return &taskRepository{BaseRepository: base}
}

func (r *taskRepository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	query := `SELECT ` + taskColumns + ` ` + taskFrom + ` WHERE t.id = $1 AND t.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, notFound("task", err)
	}
	return &task, nil
}

func (r *taskRepository) ListActiveSeries(ctx context.Context) ([]*model.Task, error) {
	var tasks []*model.Task
	query := `SELECT ` + taskColumns + ` ` + taskFrom + `
		WHERE t.is_repeating = TRUE
		  AND t.repeat_active = TRUE
		  AND t.parent_id IS NULL
		  AND t.deleted_at IS NULL
		ORDER BY t.created_at`
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("failed to list repeating tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) OccurrenceExists(ctx context.Context, seriesID uuid.UUID, date time.Time) (bool, error) {
	day := model.DateOf(date)
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM tasks
			WHERE parent_id = $1
			  AND start_date >= $2
			  AND start_date < $3
			  AND deleted_at IS NULL
		)`
	if err := r.db.GetContext(ctx, &exists, query, seriesID, day, day.AddDate(0, 0, 1)); err != nil {
		return false, fmt.Errorf("failed to check occurrence: %w", err)
	}
	return exists, nil
}

func (r *taskRepository) CreateOccurrence(ctx context.Context, occurrence *model.Task, repeatedAt time.Time) error {
	if occurrence.ParentID == nil {
		return fmt.Errorf("occurrence has no parent")
	}
	if occurrence.ID == uuid.Nil {
		occurrence.ID = uuid.New()
	}
	now := time.Now()
	occurrence.CreatedAt = now
	occurrence.UpdatedAt = now

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO tasks (
				id, admin_id, title, description, note, status_id, priority_id,
				task_type_id, project_id, quantity, close_deadline, start_date, end_date,
				created_by, parent_id, is_repeating, repeat_interval, repeat_active,
				created_at, updated_at
			) VALUES (
				:id, :admin_id, :title, :description, :note, :status_id, :priority_id,
				:task_type_id, :project_id, :quantity, :close_deadline, :start_date, :end_date,
				:created_by, :parent_id, FALSE, 1, FALSE,
				:created_at, :updated_at
			)`
		if _, err := tx.NamedExecContext(ctx, query, occurrence); err != nil {
			return fmt.Errorf("failed to insert occurrence: %w", err)
		}
		if err := markRepeated(ctx, tx, *occurrence.ParentID, repeatedAt); err != nil {
			return err
		}
		return nil
	})
}

func (r *taskRepository) MarkSeriesRepeated(ctx context.Context, seriesID uuid.UUID, repeatedAt time.Time) error {
	return markRepeated(ctx, r.db, seriesID, repeatedAt)
}

func markRepeated(ctx context.Context, db sqlx.ExecerContext, seriesID uuid.UUID, repeatedAt time.Time) error {
	query := `UPDATE tasks SET last_repeated_at = $1, updated_at = NOW() WHERE id = $2`
	if _, err := db.ExecContext(ctx, query, repeatedAt, seriesID); err != nil {
		return fmt.Errorf("failed to update last_repeated_at: %w", err)
	}
	return nil
}

func (r *taskRepository) DeactivateSeries(ctx context.Context, seriesID uuid.UUID) error {
	query := `UPDATE tasks SET repeat_active = FALSE, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, seriesID); err != nil {
		return fmt.Errorf("failed to deactivate series: %w", err)
	}
	return nil
}

func (r *taskRepository) ListEndingBetween(ctx context.Context, from, to time.Time, excludeStatuses []uuid.UUID) ([]*model.Task, error) {
	var tasks []*model.Task
	query := `SELECT ` + taskColumns + ` ` + taskFrom + `
		WHERE t.end_date > $1
		  AND t.end_date <= $2
		  AND t.deleted_at IS NULL
		  AND (t.status_id IS NULL OR NOT (t.status_id = ANY($3::uuid[])))
		ORDER BY t.end_date`
	if err := r.db.SelectContext(ctx, &tasks, query, from, to, pq.Array(uuidArray(excludeStatuses))); err != nil {
		return nil, fmt.Errorf("failed to list tasks due soon: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) ListOverdue(ctx context.Context, before time.Time, excludeStatuses []uuid.UUID) ([]*model.Task, error) {
	var tasks []*model.Task
	query := `SELECT ` + taskColumns + ` ` + taskFrom + `
		WHERE t.end_date < $1
		  AND t.deleted_at IS NULL
		  AND (t.status_id IS NULL OR NOT (t.status_id = ANY($2::uuid[])))
		ORDER BY t.end_date`
	if err := r.db.SelectContext(ctx, &tasks, query, before, pq.Array(uuidArray(excludeStatuses))); err != nil {
		return nil, fmt.Errorf("failed to list overdue tasks: %w", err)
	}
	return tasks, nil
}

func (r *taskRepository) ListAssigneeIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `SELECT user_id FROM task_user WHERE task_id = $1 ORDER BY user_id`
	if err := r.db.SelectContext(ctx, &ids, query, taskID); err != nil {
		return nil, fmt.Errorf("failed to list task assignees: %w", err)
	}
	return ids, nil
}

func (r *taskRepository) ArchiveCompleted(ctx context.Context, adminID, completedID, archivedID uuid.UUID, before time.Time) (int64, error) {
	query := `
		UPDATE tasks
		SET status_id = $1, updated_at = NOW()
		WHERE admin_id = $2
		  AND status_id = $3
		  AND updated_at < $4
		  AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, archivedID, adminID, completedID, before)
	if err != nil {
		return 0, fmt.Errorf("failed to archive tasks: %w", err)
	}
	return result.RowsAffected()
}
