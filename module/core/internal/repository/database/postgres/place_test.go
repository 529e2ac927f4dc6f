package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

func TestReplaceAll_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM places`).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`INSERT INTO places`).
		WithArgs("ChIJ1", -6.2088, 106.8456).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO places`).
		WithArgs("ChIJ2", -6.1754, 106.8272).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	repo := NewPlaceRepo(db)
	err = repo.ReplaceAll(context.Background(), []domain.Place{
		{ID: "ChIJ1", Lat: -6.2088, Lon: 106.8456},
		{ID: "ChIJ2", Lat: -6.1754, Lon: 106.8272},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceAll_EmptySnapshotClears(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM places`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	repo := NewPlaceRepo(db)
	if err := repo.ReplaceAll(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceAll_InsertErrorRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM places`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO places`).
		WithArgs("ChIJ1", -6.2088, 106.8456).
		WillReturnError(sqlmock.ErrCancelled)
	mock.ExpectRollback()

	repo := NewPlaceRepo(db)
	err = repo.ReplaceAll(context.Background(), []domain.Place{{ID: "ChIJ1", Lat: -6.2088, Lon: 106.8456}})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetAll_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"place_id", "latitude", "longitude"}).
		AddRow("ChIJ1", -6.2088, 106.8456).
		AddRow("ChIJ2", -6.1754, 106.8272)

	mock.ExpectQuery(`SELECT place_id, latitude, longitude FROM places ORDER BY place_id`).
		WillReturnRows(rows)

	repo := NewPlaceRepo(db)
	places, err := repo.GetAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(places) != 2 {
		t.Fatalf("expected 2 places, got %d", len(places))
	}
	if places[1].ID != "ChIJ2" || places[1].Lat != -6.1754 {
		t.Errorf("unexpected place %+v", places[1])
	}
}

func TestGetAll_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT place_id`).WillReturnError(sqlmock.ErrCancelled)

	repo := NewPlaceRepo(db)
	if _, err := repo.GetAll(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
