package deadline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendorconnect/jobs/internal/job"
	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	"github.com/vendorconnect/jobs/internal/service/notification"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
	"github.com/vendorconnect/jobs/pkg/logger"
)

const dateTimeLayout = "2 Jan 2006 15:04"

// Config holds the scan windows. A task is due soon when its end date falls
// within DueSoonHorizon; the dedup windows suppress a repeat notification of
// the same kind for the same task.
type Config struct {
	DueSoonHorizon time.Duration
	DueSoonDedup   time.Duration
	OverdueDedup   time.Duration
}

func DefaultConfig() Config {
	return Config{
		DueSoonHorizon: 24 * time.Hour,
		DueSoonDedup:   time.Hour,
		OverdueDedup:   24 * time.Hour,
	}
}

type Service struct {
	tasks         repository.TaskRepository
	notifications repository.NotificationRepository
	notifier      notification.Service
	cfg           Config
	log           *logger.Logger
}

func NewService(tasks repository.TaskRepository, notifications repository.NotificationRepository, notifier notification.Service, cfg Config, log *logger.Logger) *Service {
	return &Service{
		tasks:         tasks,
		notifications: notifications,
		notifier:      notifier,
		cfg:           cfg,
		log:           log,
	}
}

type rule struct {
	kind  model.NotificationType
	dedup time.Duration
	title string
	text  func(task *model.Task) string
}

func (s *Service) rules() (dueSoon, overdue rule) {
	dueSoon = rule{
		kind:  model.NotificationTaskDueSoon,
		dedup: s.cfg.DueSoonDedup,
		title: "Task due soon",
		text: func(task *model.Task) string {
			return fmt.Sprintf("%q is due on %s.", task.Title, task.EndDate.Format(dateTimeLayout))
		},
	}
	overdue = rule{
		kind:  model.NotificationTaskOverdue,
		dedup: s.cfg.OverdueDedup,
		title: "Task overdue",
		text: func(task *model.Task) string {
			return fmt.Sprintf("%q was due on %s and is not completed.", task.Title, task.EndDate.Format(dateTimeLayout))
		},
	}
	return dueSoon, overdue
}

// Run scans once. statuses must resolve the completed and archived kinds.
func (s *Service) Run(ctx context.Context, now time.Time, statuses model.StatusSet) (job.Result, error) {
	var res job.Result
	if err := statuses.Require(model.StatusCompleted, model.StatusArchived); err != nil {
		return res, apperrors.Configuration("missing task status", err)
	}
	exclude := statuses.Terminal()
	dueSoon, overdue := s.rules()

	upcoming, err := s.tasks.ListEndingBetween(ctx, now, now.Add(s.cfg.DueSoonHorizon), exclude)
	if err != nil {
		return res, fmt.Errorf("failed to load tasks due soon: %w", err)
	}
	res.Add(s.scan(ctx, upcoming, dueSoon, now))

	late, err := s.tasks.ListOverdue(ctx, now, exclude)
	if err != nil {
		return res, fmt.Errorf("failed to load overdue tasks: %w", err)
	}
	res.Add(s.scan(ctx, late, overdue, now))

	return res, nil
}

func (s *Service) scan(ctx context.Context, tasks []*model.Task, r rule, now time.Time) job.Result {
	var res job.Result
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		sent, err := s.notifyTask(ctx, task, r, now)
		switch {
		case err != nil:
			s.log.Error(err, "failed to notify task deadline",
				"task_id", task.ID.String(),
				"type", string(r.kind),
			)
			res.Failed++
		case sent == 0:
			res.Skipped++
		default:
			res.Processed++
		}
	}
	return res
}

// notifyTask returns how many notifications it created.
func (s *Service) notifyTask(ctx context.Context, task *model.Task, r rule, now time.Time) (int, error) {
	exists, err := s.notifications.ExistsForTaskSince(ctx, task.ID, r.kind, now.Add(-r.dedup))
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	assignees, err := s.tasks.ListAssigneeIDs(ctx, task.ID)
	if err != nil {
		return 0, err
	}
	recipients := Recipients(assignees, task.CreatedBy)
	if len(recipients) == 0 {
		return 0, nil
	}

	taskID := task.ID
	adminID := task.AdminID
	priority := notification.MapPriority(task.PriorityName)
	data := model.JSONMap{
		"task_id":  task.ID.String(),
		"end_date": task.EndDate.Format(time.RFC3339),
	}
	if task.ProjectID != nil {
		data["project_id"] = task.ProjectID.String()
	}

	created := 0
	var firstErr error
	for _, userID := range recipients {
		_, err := s.notifier.Notify(ctx, &model.NotificationInput{
			UserID:   userID,
			AdminID:  &adminID,
			TaskID:   &taskID,
			Type:     r.kind,
			Title:    r.title,
			Message:  r.text(task),
			Priority: priority,
			Data:     data,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("notify user %s: %w", userID, err)
			}
			continue
		}
		created++
	}
	return created, firstErr
}

// Recipients is every assignee plus the creator when not already assigned.
func Recipients(assignees []uuid.UUID, creator *uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(assignees)+1)
	out := make([]uuid.UUID, 0, len(assignees)+1)
	for _, id := range assignees {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	if creator != nil && *creator != uuid.Nil && !seen[*creator] {
		out = append(out, *creator)
	}
	return out
}
