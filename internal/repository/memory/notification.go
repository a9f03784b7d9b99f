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

type notificationRepository struct {
	*Store
}

func NewNotificationRepository(s *Store) repository.NotificationRepository {
	return &notificationRepository{Store: s}
}

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	if r.Hooks.CreateNotification != nil {
		if err := r.Hooks.CreateNotification(notification); err != nil {
			return fmt.Errorf("failed to create notification: %w", err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = r.Now()
	}
	notification.UpdatedAt = notification.CreatedAt
	c := *notification
	r.notifications[c.ID] = &c
	return nil
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return nil, apperrors.NotFound("notification", nil)
	}
	c := *n
	return &c, nil
}

func (r *notificationRepository) ExistsForTaskSince(ctx context.Context, taskID uuid.UUID, notificationType model.NotificationType, since time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.TaskID != nil && *n.TaskID == taskID && n.Type == notificationType && !n.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (r *notificationRepository) ListScheduledDue(ctx context.Context, now time.Time) ([]*model.Notification, error) {
	out := r.filter(func(n *model.Notification) bool {
		return n.ScheduledAt != nil && !n.ScheduledAt.After(now) && !n.IsSent()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (r *notificationRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	if r.Hooks.MarkSent != nil {
		if err := r.Hooks.MarkSent(id); err != nil {
			return false, fmt.Errorf("failed to mark notification sent: %w", err)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.markSent(id, at), nil
}

func (r *notificationRepository) MarkSentBatch(ctx context.Context, ids []uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, id := range ids {
		if r.markSent(id, at) {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) markSent(id uuid.UUID, at time.Time) bool {
	n, ok := r.notifications[id]
	if !ok || n.IsSent() {
		return false
	}
	stamp := at
	n.SentAt = &stamp
	n.UpdatedAt = at
	return true
}

func (r *notificationRepository) ListDigestRecipients(ctx context.Context, createdBefore time.Time) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, n := range r.filter(digestPending(createdBefore)) {
		if !seen[n.UserID] {
			seen[n.UserID] = true
			ids = append(ids, n.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

func (r *notificationRepository) ListDigestPending(ctx context.Context, userID uuid.UUID, createdBefore time.Time) ([]*model.Notification, error) {
	pending := digestPending(createdBefore)
	out := r.filter(func(n *model.Notification) bool { return n.UserID == userID && pending(n) })
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func digestPending(createdBefore time.Time) func(*model.Notification) bool {
	return func(n *model.Notification) bool {
		return !n.IsRead() && !n.IsSent() && !n.CreatedAt.After(createdBefore)
	}
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok || n.IsRead() {
		return false, nil
	}
	stamp := at
	n.ReadAt = &stamp
	return true, nil
}

func (r *notificationRepository) MarkUnread(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.notifications[id]
	if !ok {
		return apperrors.NotFound("notification", nil)
	}
	n.ReadAt = nil
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead() {
			stamp := at
			n.ReadAt = &stamp
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) filter(keep func(*model.Notification) bool) []*model.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.notifications {
		if keep(n) {
			c := *n
			out = append(out, &c)
		}
	}
	return out
}
