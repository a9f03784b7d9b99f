package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vendorconnect/jobs/internal/config"
	"github.com/vendorconnect/jobs/internal/email"
	"github.com/vendorconnect/jobs/internal/handler/health"
	"github.com/vendorconnect/jobs/internal/job"
	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository/postgres"
	"github.com/vendorconnect/jobs/internal/service/archive"
	"github.com/vendorconnect/jobs/internal/service/deadline"
	"github.com/vendorconnect/jobs/internal/service/dispatch"
	"github.com/vendorconnect/jobs/internal/service/notification"
	"github.com/vendorconnect/jobs/internal/service/occurrence"
	"github.com/vendorconnect/jobs/internal/service/projectmetrics"
	"github.com/vendorconnect/jobs/internal/service/recurring"
	"github.com/vendorconnect/jobs/internal/service/setting"
	"github.com/vendorconnect/jobs/internal/service/status"
	"github.com/vendorconnect/jobs/pkg/logger"
	"github.com/vendorconnect/jobs/pkg/messaging"
	"github.com/vendorconnect/jobs/pkg/messaging/redis"
	"github.com/vendorconnect/jobs/pkg/metrics"
)

// App owns the wired services and exposes them as named jobs.
type App struct {
	broker messaging.Broker
	jobs   map[string]job.Job
}

func newApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, m *metrics.Metrics, log *logger.Logger) (*App, error) {
	broker, err := newBroker(ctx, cfg.Redis, log)
	if err != nil {
		return nil, err
	}

	// Initialize repositories
	baseRepo := postgres.NewBaseRepository(db)
	taskRepo := postgres.NewTaskRepository(baseRepo)
	statusRepo := postgres.NewStatusRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)
	notificationRepo := postgres.NewNotificationRepository(baseRepo)
	settingRepo := postgres.NewSettingRepository(baseRepo)
	projectRepo := postgres.NewProjectRepository(baseRepo)

	// Initialize services
	statusSvc := status.NewService(statusRepo)
	notifier := notification.NewService(notificationRepo, broker, m, log)
	settingSvc := setting.NewService(settingRepo, cfg.Jobs.Archive.SettingsTTL)

	renderer, err := email.NewDigestRenderer(cfg.Jobs.Digest.PreviewLimit)
	if err != nil {
		_ = broker.Close()
		return nil, fmt.Errorf("failed to build digest templates: %w", err)
	}

	recurringSvc := recurring.NewService(taskRepo, occurrence.NewService(taskRepo), log)
	deadlineSvc := deadline.NewService(taskRepo, notificationRepo, notifier, deadline.Config{
		DueSoonHorizon: cfg.Jobs.Deadlines.DueSoonHorizon,
		DueSoonDedup:   cfg.Jobs.Deadlines.DueSoonDedup,
		OverdueDedup:   cfg.Jobs.Deadlines.OverdueDedup,
	}, log)
	dispatchSvc := dispatch.NewService(notificationRepo, userRepo, email.NewSMTPService(cfg.Mail), renderer, dispatch.Config{
		GracePeriod: cfg.Jobs.Digest.GracePeriod,
		AppURL:      cfg.Mail.AppURL,
		RatePerSec:  cfg.Mail.RatePerSec,
		Burst:       cfg.Mail.Burst,
	}, m, log)
	archiveSvc := archive.NewService(settingSvc, taskRepo, cfg.Jobs.Archive.DefaultDays, log)
	metricsSvc := projectmetrics.NewService(projectRepo, log)

	// Each run reads the clock once and resolves statuses fresh, so a
	// long-lived scheduler picks up renamed statuses without a restart.
	now := func() time.Time { return time.Now().In(cfg.Location()) }
	withStatuses := func(fn func(context.Context, time.Time, model.StatusSet) (job.Result, error), kinds ...model.StatusKind) func(context.Context) (job.Result, error) {
		return func(ctx context.Context) (job.Result, error) {
			statuses, err := statusSvc.Resolve(ctx, kinds...)
			if err != nil {
				return job.Result{}, err
			}
			return fn(ctx, now(), statuses)
		}
	}

	jobs := []job.Job{
		job.Func(job.GenerateRepeatingTasks, func(ctx context.Context) (job.Result, error) {
			return recurringSvc.Run(ctx, now())
		}),
		job.Func(job.CheckTaskDeadlines, withStatuses(deadlineSvc.Run, model.StatusCompleted, model.StatusArchived)),
		job.Func(job.SendScheduledNotifications, func(ctx context.Context) (job.Result, error) {
			return dispatchSvc.SendScheduled(ctx, now())
		}),
		job.Func(job.SendUnreadDigests, func(ctx context.Context) (job.Result, error) {
			return dispatchSvc.SendDigests(ctx, now())
		}),
		job.Func(job.AutoArchiveTasks, withStatuses(archiveSvc.Run, model.StatusCompleted, model.StatusArchived)),
		job.Func(job.CalculateProjectMetrics, withStatuses(metricsSvc.Run, model.StatusCompleted)),
	}

	app := &App{broker: broker, jobs: make(map[string]job.Job, len(jobs))}
	for _, j := range jobs {
		app.jobs[j.Name()] = j
	}
	return app, nil
}

func newBroker(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (messaging.Broker, error) {
	if !cfg.Enabled {
		return messaging.NopBroker{}, nil
	}
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:          cfg.URL,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis broker: %w", err)
	}
	return broker, nil
}

// Job looks a job up by its command name.
func (a *App) Job(name string) (job.Job, bool) {
	j, ok := a.jobs[name]
	return j, ok
}

// Checks returns the dependencies readiness should ping besides the database.
func (a *App) Checks() map[string]health.Pinger {
	checks := make(map[string]health.Pinger)
	if p, ok := a.broker.(health.Pinger); ok {
		checks["redis"] = p
	}
	return checks
}

func (a *App) Close() error {
	return a.broker.Close()
}
