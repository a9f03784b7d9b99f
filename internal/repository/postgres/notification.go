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

const notificationColumns = `
	id, user_id, admin_id, task_id, type, title, message, priority, data,
	scheduled_at, sent_at, read_at, created_at, updated_at`

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{BaseRepository: base}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	notification.UpdatedAt = notification.CreatedAt
	if notification.Data == nil {
		notification.Data = model.JSONMap{}
	}

	query := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES (
			:id, :user_id, :admin_id, :task_id, :type, :title, :message, :priority, :data,
			:scheduled_at, :sent_at, :read_at, :created_at, :updated_at
		)`
	if _, err := r.db.NamedExecContext(ctx, query, notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var notification model.Notification
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	if err := r.db.GetContext(ctx, &notification, query, id); err != nil {
		return nil, notFound("notification", err)
	}
	return &notification, nil
}

func (r *notificationRepository) ExistsForTaskSince(ctx context.Context, taskID uuid.UUID, notificationType model.NotificationType, since time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE task_id = $1 AND type = $2 AND created_at >= $3
		)`
	if err := r.db.GetContext(ctx, &exists, query, taskID, notificationType, since); err != nil {
		return false, fmt.Errorf("failed to check recent notifications: %w", err)
	}
	return exists, nil
}

func (r *notificationRepository) ListScheduledDue(ctx context.Context, now time.Time) ([]*model.Notification, error) {
	var notifications []*model.Notification
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE scheduled_at <= $1 AND sent_at IS NULL
		ORDER BY scheduled_at`
	if err := r.db.SelectContext(ctx, &notifications, query, now); err != nil {
		return nil, fmt.Errorf("failed to list scheduled notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE notifications SET sent_at = $1, updated_at = $1 WHERE id = $2 AND sent_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification sent: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *notificationRepository) MarkSentBatch(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := `UPDATE notifications SET sent_at = $1, updated_at = $1
		WHERE id = ANY($2::uuid[]) AND sent_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, at, pq.Array(uuidArray(ids)))
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications sent: %w", err)
	}
	return result.RowsAffected()
}

func (r *notificationRepository) ListDigestRecipients(ctx context.Context, createdBefore time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := `
		SELECT DISTINCT user_id FROM notifications
		WHERE read_at IS NULL AND sent_at IS NULL AND created_at <= $1
		ORDER BY user_id`
	if err := r.db.SelectContext(ctx, &ids, query, createdBefore); err != nil {
		return nil, fmt.Errorf("failed to list digest recipients: %w", err)
	}
	return ids, nil
}

func (r *notificationRepository) ListDigestPending(ctx context.Context, userID uuid.UUID, createdBefore time.Time) ([]*model.Notification, error) {
	var notifications []*model.Notification
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = $1 AND read_at IS NULL AND sent_at IS NULL AND created_at <= $2
		ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &notifications, query, userID, createdBefore); err != nil {
		return nil, fmt.Errorf("failed to list unread notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	query := `UPDATE notifications SET read_at = $1, updated_at = $1 WHERE id = $2 AND read_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

func (r *notificationRepository) MarkUnread(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE notifications SET read_at = NULL, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification unread: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("notification", errNoRows)
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	query := `UPDATE notifications SET read_at = $1, updated_at = $1 WHERE user_id = $2 AND read_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, at, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.RowsAffected()
}
