package service

import (
	"context"

	"github.com/gmontoya2483/Shushme/module/core/domain"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/database"
)

const (
	DefaultOperationLimit = 50
	MaxOperationLimit     = 500
)

type OperationService struct {
	repo database.OperationRepository
}

func NewOperationService(repo database.OperationRepository) *OperationService {
	return &OperationService{repo: repo}
}

// Record stores a report in the ledger. It is meant to back a SinkReporter.
func (s *OperationService) Record(ctx context.Context, r *domain.Report) error {
	return s.repo.Insert(ctx, r)
}

func (s *OperationService) ListRecent(ctx context.Context, limit int) ([]domain.OperationRecord, error) {
	if limit <= 0 {
		limit = DefaultOperationLimit
	}
	if limit > MaxOperationLimit {
		limit = MaxOperationLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
