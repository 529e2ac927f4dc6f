package database

import (
	"context"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

// PlaceRepository stores the latest place snapshot so the desired region set
// survives restarts.
type PlaceRepository interface {
	ReplaceAll(ctx context.Context, places []domain.Place) error
	GetAll(ctx context.Context) ([]domain.Place, error)
}

type OperationRepository interface {
	Insert(ctx context.Context, r *domain.Report) error
	ListRecent(ctx context.Context, limit int) ([]domain.OperationRecord, error)
}
