package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vendorconnect/jobs/internal/model"
)

// All repository interfaces in one file
type (
	// TaskRepository covers the task reads and writes the jobs need
	TaskRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Task, error)
		ListActiveSeries(ctx context.Context) ([]*model.Task, error)
		OccurrenceExists(ctx context.Context, seriesID uuid.UUID, date time.Time) (bool, error)
		// CreateOccurrence inserts the child and moves the series'
		// last_repeated_at to repeatedAt in one transaction.
		CreateOccurrence(ctx context.Context, occurrence *model.Task, repeatedAt time.Time) error
		MarkSeriesRepeated(ctx context.Context, seriesID uuid.UUID, repeatedAt time.Time) error
		DeactivateSeries(ctx context.Context, seriesID uuid.UUID) error
		ListEndingBetween(ctx context.Context, from, to time.Time, excludeStatuses []uuid.UUID) ([]*model.Task, error)
		ListOverdue(ctx context.Context, before time.Time, excludeStatuses []uuid.UUID) ([]*model.Task, error)
		ListAssigneeIDs(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error)
		ArchiveCompleted(ctx context.Context, adminID, completedID, archivedID uuid.UUID, before time.Time) (int64, error)
	}

	StatusRepository interface {
		List(ctx context.Context) ([]*model.Status, error)
	}

	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	}

	NotificationRepository interface {
		Create(ctx context.Context, notification *model.Notification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		ExistsForTaskSince(ctx context.Context, taskID uuid.UUID, notificationType model.NotificationType, since time.Time) (bool, error)
		ListScheduledDue(ctx context.Context, now time.Time) ([]*model.Notification, error)
		// MarkSent stamps sent_at only where it is still null and reports
		// whether a row changed.
		MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
		MarkSentBatch(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error)
		ListDigestRecipients(ctx context.Context, createdBefore time.Time) ([]uuid.UUID, error)
		ListDigestPending(ctx context.Context, userID uuid.UUID, createdBefore time.Time) ([]*model.Notification, error)
		MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
		MarkUnread(ctx context.Context, id uuid.UUID) error
		MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	}

	SettingRepository interface {
		Get(ctx context.Context, adminID uuid.UUID, key string) (*model.Setting, error)
		ListByKey(ctx context.Context, key string) ([]*model.Setting, error)
	}

	ProjectRepository interface {
		ListActive(ctx context.Context) ([]*model.Project, error)
		TaskStats(ctx context.Context, projectID, completedID uuid.UUID, terminal []uuid.UUID, now time.Time) (*model.ProjectTaskStats, error)
		UpsertBaseline(ctx context.Context, baseline *model.ProjectMetricsBaseline) error
	}
)
