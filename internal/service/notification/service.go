package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	"github.com/vendorconnect/jobs/pkg/logger"
	"github.com/vendorconnect/jobs/pkg/messaging"
	"github.com/vendorconnect/jobs/pkg/metrics"
	"github.com/vendorconnect/jobs/pkg/validator"
)

const eventCreated = "notification.created"

type Service interface {
	// Notify persists an in-app notification and announces it on the broker.
	Notify(ctx context.Context, input *model.NotificationInput) (*model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	MarkUnread(ctx context.Context, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
}

type Option func(*service)

// WithClock replaces time.Now for created_at and read_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo      repository.NotificationRepository
	broker    messaging.Broker
	metrics   *metrics.Metrics
	log       *logger.Logger
	validator validator.Validator
	now       func() time.Time
}

func NewService(repo repository.NotificationRepository, broker messaging.Broker, m *metrics.Metrics, log *logger.Logger, opts ...Option) Service {
	v := validator.New()
	// Only fails on a malformed tag name.
	if err := v.RegisterRule("notification_type", func(value interface{}) bool {
		t, ok := value.(model.NotificationType)
		return ok && t.Valid()
	}); err != nil {
		panic(err)
	}
	if broker == nil {
		broker = messaging.NopBroker{}
	}

	s := &service{
		repo:      repo,
		broker:    broker,
		metrics:   m,
		log:       log,
		validator: v,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) Notify(ctx context.Context, input *model.NotificationInput) (*model.Notification, error) {
	if err := s.validator.Validate(input); err != nil {
		return nil, fmt.Errorf("invalid notification: %w", err)
	}

	now := s.now()
	notification := &model.Notification{
		ID:          uuid.New(),
		UserID:      input.UserID,
		AdminID:     input.AdminID,
		TaskID:      input.TaskID,
		Type:        input.Type,
		Title:       input.Title,
		Message:     input.Message,
		Priority:    input.Priority,
		Data:        input.Data,
		ScheduledAt: input.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if notification.Data == nil {
		notification.Data = model.JSONMap{}
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	if s.metrics != nil {
		s.metrics.NotificationsCreated.WithLabelValues(string(notification.Type)).Inc()
	}

	// The row is the source of truth; a lost event only delays the in-app badge.
	if err := s.publish(ctx, notification); err != nil {
		s.log.Error(err, "failed to publish notification event",
			"notification_id", notification.ID.String(),
			"user_id", notification.UserID.String(),
		)
	}

	return notification, nil
}

func (s *service) publish(ctx context.Context, notification *model.Notification) error {
	msg := messaging.Message{
		Type: eventCreated,
		Payload: &model.NotificationEvent{
			ID:             uuid.New(),
			NotificationID: notification.ID,
			UserID:         notification.UserID,
			Type:           notification.Type,
			Title:          notification.Title,
			Priority:       notification.Priority,
			CreatedAt:      notification.CreatedAt,
		},
	}
	return s.broker.Publish(ctx, messaging.ChannelNotifications, msg)
}

func (s *service) MarkRead(ctx context.Context, id uuid.UUID) error {
	changed, err := s.repo.MarkRead(ctx, id, s.now())
	if err != nil {
		return err
	}
	if !changed {
		// Either already read or missing; only the latter is an error.
		if _, err := s.repo.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) MarkUnread(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkUnread(ctx, id)
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllRead(ctx, userID, s.now())
}
