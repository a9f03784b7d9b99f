package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
)

type settingRepository struct {
	BaseRepository
}

func NewSettingRepository(base BaseRepository) repository.SettingRepository {
	return &settingRepository{BaseRepository: base}
}

func (r *settingRepository) Get(ctx context.Context, adminID uuid.UUID, key string) (*model.Setting, error) {
	var setting model.Setting
	query := `SELECT admin_id, key, value, updated_at FROM settings WHERE admin_id = $1 AND key = $2`
	if err := r.db.GetContext(ctx, &setting, query, adminID, key); err != nil {
		return nil, notFound("setting", err)
	}
	return &setting, nil
}

func (r *settingRepository) ListByKey(ctx context.Context, key string) ([]*model.Setting, error) {
	var settings []*model.Setting
	query := `SELECT admin_id, key, value, updated_at FROM settings WHERE key = $1 ORDER BY admin_id`
	if err := r.db.SelectContext(ctx, &settings, query, key); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}
