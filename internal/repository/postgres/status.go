package postgres

import (
	"context"
	"fmt"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
)

type statusRepository struct {
	BaseRepository
}

func NewStatusRepository(base BaseRepository) repository.StatusRepository {
	return &statusRepository{BaseRepository: base}
}

func (r *statusRepository) List(ctx context.Context) ([]*model.Status, error) {
	var statuses []*model.Status
	query := `SELECT id, title, slug FROM statuses ORDER BY slug`
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}
