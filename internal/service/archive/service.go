package archive

import (
	"context"
	"time"

	"github.com/vendorconnect/jobs/internal/job"
	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	"github.com/vendorconnect/jobs/internal/service/setting"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
	"github.com/vendorconnect/jobs/pkg/logger"
)

// Service moves completed tasks to the archive status for tenants that opted
// in through the auto_archive_enabled setting.
type Service struct {
	settings    *setting.Service
	tasks       repository.TaskRepository
	defaultDays int
	log         *logger.Logger
}

func NewService(settings *setting.Service, tasks repository.TaskRepository, defaultDays int, log *logger.Logger) *Service {
	if defaultDays < 1 {
		defaultDays = 30
	}
	return &Service{
		settings:    settings,
		tasks:       tasks,
		defaultDays: defaultDays,
		log:         log,
	}
}

func (s *Service) Run(ctx context.Context, now time.Time, statuses model.StatusSet) (job.Result, error) {
	var res job.Result
	if err := statuses.Require(model.StatusCompleted, model.StatusArchived); err != nil {
		return res, apperrors.Configuration("missing task status", err)
	}
	completed := statuses.MustID(model.StatusCompleted)
	archived := statuses.MustID(model.StatusArchived)

	tenants, err := s.settings.Tenants(ctx, model.SettingAutoArchiveEnabled)
	if err != nil {
		return res, err
	}

	for _, tenant := range tenants {
		if ctx.Err() != nil {
			break
		}
		log := s.log.With("admin_id", tenant.AdminID.String())

		// Tenants primed the cache, so this does not hit the database.
		enabled, err := s.settings.Bool(ctx, tenant.AdminID, model.SettingAutoArchiveEnabled, false)
		if err != nil {
			log.Warn("ignoring invalid auto_archive_enabled value", "value", tenant.Value, "error", err.Error())
			res.Skipped++
			continue
		}
		if !enabled {
			res.Skipped++
			continue
		}

		days, err := s.settings.Int(ctx, tenant.AdminID, model.SettingAutoArchiveDays, s.defaultDays)
		if err != nil {
			log.Error(err, "skipping tenant with unreadable auto_archive_days")
			res.Skipped++
			continue
		}
		if days < 1 {
			log.Warn("skipping tenant with auto_archive_days below one", "days", days)
			res.Skipped++
			continue
		}

		cutoff := now.AddDate(0, 0, -days)
		n, err := s.tasks.ArchiveCompleted(ctx, tenant.AdminID, completed, archived, cutoff)
		if err != nil {
			log.Error(err, "failed to archive completed tasks")
			res.Failed++
			continue
		}
		log.Info("archived completed tasks", "count", n, "days", days)
		res.Processed++
	}
	return res, nil
}
