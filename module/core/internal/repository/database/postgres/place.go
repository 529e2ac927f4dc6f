package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/gmontoya2483/Shushme/module/core/domain"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/database"
)

var _ database.PlaceRepository = (*PlaceRepo)(nil)

type PlaceRepo struct {
	db *sql.DB
}

func NewPlaceRepo(db *sql.DB) *PlaceRepo {
	return &PlaceRepo{db: db}
}

// ReplaceAll swaps the stored snapshot for places in one transaction.
func (r *PlaceRepo) ReplaceAll(ctx context.Context, places []domain.Place) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM places`); err != nil {
		return fmt.Errorf("clear places: %w", err)
	}

	for _, p := range places {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO places (place_id, latitude, longitude) VALUES ($1, $2, $3)
			 ON CONFLICT (place_id) DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude`,
			p.ID, p.Lat, p.Lon,
		)
		if err != nil {
			return fmt.Errorf("insert place %s: %w", p.ID, err)
		}
	}

	return tx.Commit()
}

func (r *PlaceRepo) GetAll(ctx context.Context) ([]domain.Place, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT place_id, latitude, longitude FROM places ORDER BY place_id`,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.Place
	for rows.Next() {
		var p domain.Place
		if err := rows.Scan(&p.ID, &p.Lat, &p.Lon); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}
