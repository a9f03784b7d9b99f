package status

import (
	"context"
	"fmt"

	"github.com/vendorconnect/jobs/internal/model"
	"github.com/vendorconnect/jobs/internal/repository"
	apperrors "github.com/vendorconnect/jobs/pkg/errors"
)

type Service interface {
	// Resolve loads the statuses table once and maps it onto status kinds.
	// A required kind without a row is a configuration error.
	Resolve(ctx context.Context, required ...model.StatusKind) (model.StatusSet, error)
}

type service struct {
	repo repository.StatusRepository
}

func NewService(repo repository.StatusRepository) Service {
	return &service{repo: repo}
}

func (s *service) Resolve(ctx context.Context, required ...model.StatusKind) (model.StatusSet, error) {
	statuses, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load statuses: %w", err)
	}

	set := make(model.StatusSet, len(statuses))
	for _, st := range statuses {
		set[model.StatusKind(st.Slug)] = st.ID
	}
	if err := set.Require(required...); err != nil {
		return nil, apperrors.Configuration("missing task status", err)
	}
	return set, nil
}
