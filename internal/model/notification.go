package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTaskAssigned     NotificationType = "task_assigned"
	NotificationTaskCompleted    NotificationType = "task_completed"
	NotificationTaskDueSoon      NotificationType = "task_due_soon"
	NotificationTaskOverdue      NotificationType = "task_overdue"
	NotificationDeliverableAdded NotificationType = "deliverable_added"
	NotificationCommentAdded     NotificationType = "comment_added"
	NotificationProjectUpdated   NotificationType = "project_updated"
	NotificationClientUpdated    NotificationType = "client_updated"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationTaskAssigned, NotificationTaskCompleted, NotificationTaskDueSoon,
		NotificationTaskOverdue, NotificationDeliverableAdded, NotificationCommentAdded,
		NotificationProjectUpdated, NotificationClientUpdated:
		return true
	}
	return false
}

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityMedium NotificationPriority = "medium"
	PriorityHigh   NotificationPriority = "high"
	PriorityUrgent NotificationPriority = "urgent"
)

// Notification is an in-app notification. SentAt is stamped once, by either
// the scheduled-send sweep or the digest email sweep.
type Notification struct {
	ID          uuid.UUID            `json:"id" db:"id"`
	UserID      uuid.UUID            `json:"user_id" db:"user_id"`
	AdminID     *uuid.UUID           `json:"admin_id" db:"admin_id"`
	TaskID      *uuid.UUID           `json:"task_id" db:"task_id"`
	Type        NotificationType     `json:"type" db:"type"`
	Title       string               `json:"title" db:"title"`
	Message     string               `json:"message" db:"message"`
	Priority    NotificationPriority `json:"priority" db:"priority"`
	Data        JSONMap              `json:"data" db:"data"`
	ScheduledAt *time.Time           `json:"scheduled_at" db:"scheduled_at"`
	SentAt      *time.Time           `json:"sent_at" db:"sent_at"`
	ReadAt      *time.Time           `json:"read_at" db:"read_at"`
	CreatedAt   time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at" db:"updated_at"`
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }

func (n *Notification) IsSent() bool { return n.SentAt != nil }

// NotificationInput carries what callers supply to create a notification.
type NotificationInput struct {
	UserID      uuid.UUID            `validate:"required"`
	AdminID     *uuid.UUID           `validate:"-"`
	TaskID      *uuid.UUID           `validate:"-"`
	Type        NotificationType     `validate:"required,notification_type"`
	Title       string               `validate:"required,max=255"`
	Message     string               `validate:"required"`
	Priority    NotificationPriority `validate:"required,oneof=low medium high urgent"`
	Data        JSONMap              `validate:"-"`
	ScheduledAt *time.Time           `validate:"-"`
}

// NotificationEvent is published on the broker when a notification is created.
type NotificationEvent struct {
	ID             uuid.UUID            `json:"id"`
	NotificationID uuid.UUID            `json:"notification_id"`
	UserID         uuid.UUID            `json:"user_id"`
	Type           NotificationType     `json:"type"`
	Title          string               `json:"title"`
	Priority       NotificationPriority `json:"priority"`
	CreatedAt      time.Time            `json:"created_at"`
}
