package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/gmontoya2483/Shushme/module/core/domain"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/database"
)

var _ database.OperationRepository = (*OperationRepo)(nil)

// OperationRepo is the ledger of finished geofence operations.
type OperationRepo struct {
	db *sql.DB
}

func NewOperationRepo(db *sql.DB) *OperationRepo {
	return &OperationRepo{db: db}
}

func (r *OperationRepo) Insert(ctx context.Context, rep *domain.Report) error {
	rec := domain.NewOperationRecord(rep)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geofence_operations (operation_id, kind, region_ids, status, code, reason, duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sql.NullString{String: rec.OperationID, Valid: rec.OperationID != ""},
		string(rec.Kind), pq.Array(rec.RegionIDs), string(rec.Status),
		rec.Code, rec.Reason, rec.DurationMs, rec.CreatedAt,
	)
	return err
}

func (r *OperationRepo) ListRecent(ctx context.Context, limit int) ([]domain.OperationRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT operation_id, kind, region_ids, status, code, reason, duration_ms, created_at
		 FROM geofence_operations ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var results []domain.OperationRecord
	for rows.Next() {
		var (
			rec         domain.OperationRecord
			operationID sql.NullString
			kind        string
			status      string
		)
		if err := rows.Scan(&operationID, &kind, pq.Array(&rec.RegionIDs), &status,
			&rec.Code, &rec.Reason, &rec.DurationMs, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.OperationID = operationID.String
		rec.Kind = domain.OperationKind(kind)
		rec.Status = domain.OperationStatus(status)
		results = append(results, rec)
	}
	return results, rows.Err()
}
