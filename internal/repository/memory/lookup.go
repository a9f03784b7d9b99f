package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
)

type statusRepository struct{ *Store }

func NewStatusRepository(s *Store) repository.StatusRepository {
	return &statusRepository{Store: s}
}

func (r *statusRepository) List(ctx context.Context) ([]*model.Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Status, 0, len(r.statuses))
	for _, st := range r.statuses {
		c := *st
		out = append(out, &c)
	}
	return out, nil
}

type userRepository struct{ *Store }

func NewUserRepository(s *Store) repository.UserRepository {
	return &userRepository{Store: s}
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, apperrors.NotFound("user", nil)
	}
	c := *u
	return &c, nil
}

type settingRepository struct{ *Store }

func NewSettingRepository(s *Store) repository.SettingRepository {
	return &settingRepository{Store: s}
}

func (r *settingRepository) Get(ctx context.Context, adminID uuid.UUID, key string) (*model.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.settings[settingKey{adminID, key}]
	if !ok {
		return nil, apperrors.NotFound("setting", nil)
	}
	c := *st
	return &c, nil
}

func (r *settingRepository) ListByKey(ctx context.Context, key string) ([]*model.Setting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Setting
	for k, st := range r.settings {
		if k.key == key {
			c := *st
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AdminID.String() < out[j].AdminID.String() })
	return out, nil
}

type projectRepository struct{ *Store }

func NewProjectRepository(s *Store) repository.ProjectRepository {
	return &projectRepository{Store: s}
}

func (r *projectRepository) ListActive(ctx context.Context) ([]*model.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Project
	for _, p := range r.projects {
		if p.DeletedAt == nil {
			c := *p
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *projectRepository) TaskStats(ctx context.Context, projectID, completedID uuid.UUID, terminal []uuid.UUID, now time.Time) (*model.ProjectTaskStats, error) {
	if r.Hooks.TaskStats != nil {
		if err := r.Hooks.TaskStats(projectID); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &model.ProjectTaskStats{ProjectID: projectID}
	for _, t := range r.tasks {
		if t.ProjectID == nil || *t.ProjectID != projectID || t.DeletedAt != nil {
			continue
		}
		stats.TotalTasks++
		if t.StatusID != nil && *t.StatusID == completedID {
			stats.CompletedTasks++
			start := t.CreatedAt
			if t.StartDate != nil {
				start = *t.StartDate
			}
			stats.CompletionDaysSum += t.UpdatedAt.Sub(start).Hours() / 24
			stats.CompletionDaysRows++
		}
		if t.EndDate != nil && t.EndDate.Before(now) && !containsID(terminal, t.StatusID) {
			stats.OverdueTasks++
		}
	}
	return stats, nil
}

func (r *projectRepository) UpsertBaseline(ctx context.Context, baseline *model.ProjectMetricsBaseline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *baseline
	r.baselines[c.ProjectID] = &c
	return nil
}
