package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
)

type taskRepository struct {
	*Store
}

func NewTaskRepository(s *Store) repository.TaskRepository {
	return &taskRepository{Store: s}
}

func (r *taskRepository) Get(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.DeletedAt != nil {
		return nil, apperrors.NotFound("task", nil)
	}
	return r.taskCopy(t), nil
}

func (r *taskRepository) ListActiveSeries(ctx context.Context) ([]*model.Task, error) {
	return r.filter(func(t *model.Task) bool {
		return t.IsRepeating && t.RepeatActive && t.ParentID == nil
	}, func(a, b *model.Task) bool { return a.CreatedAt.Before(b.CreatedAt) }), nil
}

func (r *taskRepository) OccurrenceExists(ctx context.Context, seriesID uuid.UUID, date time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.occurrenceExists(seriesID, date), nil
}

func (r *taskRepository) occurrenceExists(seriesID uuid.UUID, date time.Time) bool {
	day := model.DateOf(date)
	next := day.AddDate(0, 0, 1)
	for _, t := range r.tasks {
		if t.ParentID == nil || *t.ParentID != seriesID || t.DeletedAt != nil || t.StartDate == nil {
			continue
		}
		if !t.StartDate.Before(day) && t.StartDate.Before(next) {
			return true
		}
	}
	return false
}

func (r *taskRepository) CreateOccurrence(ctx context.Context, occurrence *model.Task, repeatedAt time.Time) error {
	if occurrence.ParentID == nil {
		return fmt.Errorf("occurrence has no parent")
	}
	if r.Hooks.CreateOccurrence != nil {
		if err := r.Hooks.CreateOccurrence(occurrence); err != nil {
			return fmt.Errorf("failed to insert occurrence: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	series, ok := r.tasks[*occurrence.ParentID]
	if !ok {
		return fmt.Errorf("failed to insert occurrence: parent %s missing", occurrence.ParentID)
	}
	// Stands in for the unique (parent_id, start day) check a concurrent
	// insert would trip in the database.
	if occurrence.StartDate != nil && r.occurrenceExists(*occurrence.ParentID, *occurrence.StartDate) {
		return fmt.Errorf("failed to insert occurrence: duplicate start date")
	}
	if occurrence.ID == uuid.Nil {
		occurrence.ID = uuid.New()
	}
	now := r.Now()
	occurrence.CreatedAt = now
	occurrence.UpdatedAt = now
	c := *occurrence
	c.PriorityName = nil
	r.tasks[c.ID] = &c

	at := repeatedAt
	series.LastRepeatedAt = &at
	return nil
}

func (r *taskRepository) MarkSeriesRepeated(ctx context.Context, seriesID uuid.UUID, repeatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[seriesID]
	if !ok {
		return fmt.Errorf("failed to update last_repeated_at: task %s missing", seriesID)
	}
	at := repeatedAt
	t.LastRepeatedAt = &at
	return nil
}

func (r *taskRepository) DeactivateSeries(ctx context.Context, seriesID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[seriesID]
	if !ok {
		return fmt.Errorf("failed to deactivate series: task %s missing", seriesID)
	}
	t.RepeatActive = false
	return nil
}

func (r *taskRepository) ListEndingBetween(ctx context.Context, from, to time.Time, excludeStatuses []uuid.UUID) ([]*model.Task, error) {
	return r.filter(func(t *model.Task) bool {
		return t.EndDate != nil && t.EndDate.After(from) && !t.EndDate.After(to) &&
			!containsID(excludeStatuses, t.StatusID)
	}, byEndDate), nil
}

func (r *taskRepository) ListOverdue(ctx context.Context, before time.Time, excludeStatuses []uuid.UUID) ([]*model.Task, error) {
	return r.filter(func(t *model.Task) bool {
		return t.EndDate != nil && t.EndDate.Before(before) && !containsID(excludeStatuses, t.StatusID)
	}, byEndDate), nil
}

func (r *taskRepository) ListAssigneeIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uuid.UUID
	for _, a := range r.assignments {
		if a.TaskID == taskID {
			ids = append(ids, a.UserID)
		}
	}
	return ids, nil
}

func (r *taskRepository) ArchiveCompleted(ctx context.Context, adminID, completedID, archivedID uuid.UUID, before time.Time) (int64, error) {
	if r.Hooks.ArchiveCompleted != nil {
		if err := r.Hooks.ArchiveCompleted(adminID); err != nil {
			return 0, fmt.Errorf("failed to archive tasks: %w", err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tasks {
		if t.AdminID != adminID || t.DeletedAt != nil || t.StatusID == nil || *t.StatusID != completedID {
			continue
		}
		if !t.UpdatedAt.Before(before) {
			continue
		}
		id := archivedID
		t.StatusID = &id
		t.UpdatedAt = r.Now()
		n++
	}
	return n, nil
}

func (r *taskRepository) filter(keep func(*model.Task) bool, less func(a, b *model.Task) bool) []*model.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Task
	for _, t := range r.tasks {
		if t.DeletedAt == nil && keep(t) {
			out = append(out, r.taskCopy(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byEndDate(a, b *model.Task) bool { return a.EndDate.Before(*b.EndDate) }
