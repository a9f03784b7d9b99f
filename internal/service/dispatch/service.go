package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/vendorconnect/jobs/internal/email"
	"github.com/vendorconnect/jobs/internal/job"
	"github.com/vendorconnect/jobs/internal/repository"
	"github.com/vendorconnect/jobs/pkg/circuitbreaker"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
	"github.com/vendorconnect/jobs/pkg/logger"
	"github.com/vendorconnect/jobs/pkg/metrics"
)

type Config struct {
	// GracePeriod gives a user time to see a notification in-app before it
	// is emailed.
	GracePeriod time.Duration
	AppURL      string
	RatePerSec  float64
	Burst       int
}

// Service sends what is waiting in the notifications table.
type Service struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	mailer        email.Service
	renderer      *email.DigestRenderer
	limiter       *rate.Limiter
	breaker       *circuitbreaker.CircuitBreaker
	metrics       *metrics.Metrics
	log           *logger.Logger
	cfg           Config
}

func NewService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	mailer email.Service,
	renderer *email.DigestRenderer,
	cfg Config,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Service{
		notifications: notifications,
		users:         users,
		mailer:        mailer,
		renderer:      renderer,
		limiter:       rate.NewLimiter(limit, burst),
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: 5,
			Timeout:     time.Minute,
		}),
		metrics: m,
		log:     log,
		cfg:     cfg,
	}
}

// SendScheduled stamps sent_at on every notification whose scheduled time
// has come. Each row is updated on its own.
func (s *Service) SendScheduled(ctx context.Context, now time.Time) (job.Result, error) {
	var res job.Result

	due, err := s.notifications.ListScheduledDue(ctx, now)
	if err != nil {
		return res, fmt.Errorf("failed to load scheduled notifications: %w", err)
	}

	for _, n := range due {
		if ctx.Err() != nil {
			break
		}
		changed, err := s.notifications.MarkSent(ctx, n.ID, now)
		switch {
		case err != nil:
			s.log.Error(err, "failed to send scheduled notification", "notification_id", n.ID.String())
			res.Failed++
		case !changed:
			// sent by a concurrent sweep in the meantime
			res.Skipped++
		default:
			res.Processed++
		}
	}
	return res, nil
}

// SendDigests emails every user one summary of their unread, unsent
// notifications older than the grace period and marks them sent.
func (s *Service) SendDigests(ctx context.Context, now time.Time) (job.Result, error) {
	var res job.Result
	cutoff := now.Add(-s.cfg.GracePeriod)

	userIDs, err := s.notifications.ListDigestRecipients(ctx, cutoff)
	if err != nil {
		return res, fmt.Errorf("failed to load digest recipients: %w", err)
	}

	for _, userID := range userIDs {
		if ctx.Err() != nil {
			break
		}
		sent, err := s.sendDigest(ctx, userID, cutoff, now)
		switch {
		case err != nil:
			s.log.Error(err, "failed to send notification digest", "user_id", userID.String())
			res.Failed++
		case !sent:
			res.Skipped++
		default:
			res.Processed++
		}
	}
	return res, nil
}

func (s *Service) sendDigest(ctx context.Context, userID uuid.UUID, cutoff, now time.Time) (bool, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.log.Warn("skipping digest for missing user", "user_id", userID.String())
			return false, nil
		}
		return false, err
	}
	if user.Email == "" {
		s.log.Warn("skipping digest for user without email", "user_id", userID.String())
		return false, nil
	}

	pending, err := s.notifications.ListDigestPending(ctx, userID, cutoff)
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return false, nil
	}

	msg, err := s.renderer.Render(user.Email, &email.Digest{
		RecipientName: user.FullName(),
		Notifications: pending,
		Total:         len(pending),
		AppURL:        s.cfg.AppURL,
	})
	if err != nil {
		return false, err
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("rate limiter: %w", err)
	}
	err = s.breaker.Execute(func() error {
		return s.mailer.Send(ctx, msg)
	})
	if err != nil {
		s.countEmail(err)
		return false, err
	}
	s.countEmail(nil)

	ids := make([]uuid.UUID, len(pending))
	for i, n := range pending {
		ids[i] = n.ID
	}
	marked, err := s.notifications.MarkSentBatch(ctx, ids, now)
	if err != nil {
		return false, fmt.Errorf("digest sent but not recorded: %w", err)
	}

	s.log.Info("sent notification digest",
		"user_id", userID.String(),
		"notifications", len(pending),
		"marked", marked,
	)
	return true, nil
}

func (s *Service) countEmail(err error) {
	if s.metrics == nil {
		return
	}
	status := "sent"
	switch {
	case errors.Is(err, circuitbreaker.ErrOpen):
		status = "circuit_open"
	case err != nil:
		status = "failed"
	}
	s.metrics.EmailsSent.WithLabelValues(status).Inc()
}
