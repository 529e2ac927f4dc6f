package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gmontoya2483/Shushme/module/core/domain"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/database"
)

type regionSyncer interface {
	Sync(ctx context.Context, regions []domain.Region)
}

// PlaceService keeps the stored snapshot and the synchronizer's desired set
// in step. Snapshots arrive from HTTP and MQTT concurrently; mu makes store
// and sync one step so the last stored snapshot is also the last synced.
type PlaceService struct {
	repo   database.PlaceRepository
	syncer regionSyncer
	log    *zap.Logger

	mu sync.Mutex
}

func NewPlaceService(repo database.PlaceRepository, syncer regionSyncer, log *zap.Logger) *PlaceService {
	if log == nil {
		log = zap.NewNop()
	}
	return &PlaceService{repo: repo, syncer: syncer, log: log}
}

// ReplacePlaces stores places as the new snapshot and syncs the regions
// built from it. Nothing is synced when the snapshot cannot be stored.
func (s *PlaceService) ReplacePlaces(ctx context.Context, places []domain.Place) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.ReplaceAll(ctx, places); err != nil {
		return fmt.Errorf("store places: %w", err)
	}
	s.syncer.Sync(ctx, domain.RegionsFromPlaces(places))
	return nil
}

// Restore syncs the last stored snapshot.
func (s *PlaceService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	places, err := s.repo.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load places: %w", err)
	}
	s.log.Info("restoring places", zap.Int("count", len(places)))
	s.syncer.Sync(ctx, domain.RegionsFromPlaces(places))
	return nil
}
