package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"hubgaranzie/internal/models"
)

func setupLookupMock(t *testing.T) (*PostgresLookupRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock database: %v", err)
	}
	repo := NewPostgresLookupRepository(db)
	cleanup := func() { db.Close() }
	return repo, mock, cleanup
}

func TestRecordLookup_Success(t *testing.T) {
	repo, mock, cleanup := setupLookupMock(t)
	defer cleanup()

	rec := models.LookupRecord{
		ID:         "0d3cbd3e-8f2e-4e8e-9e2e-111111111111",
		Telaio:     "NM0GE9E...X1",
		Success:    true,
		DurationMs: 842,
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lookups (id, telaio, success, error_kind, duration_ms)`)).
		WithArgs(rec.ID, rec.Telaio, rec.Success, rec.ErrorKind, rec.DurationMs).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordLookup(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecordLookup_Failure(t *testing.T) {
	repo, mock, cleanup := setupLookupMock(t)
	defer cleanup()

	rec := models.LookupRecord{
		ID:        "0d3cbd3e-8f2e-4e8e-9e2e-222222222222",
		Telaio:    "X1",
		Success:   false,
		ErrorKind: "portal_request_rejected",
	}
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lookups`)).
		WithArgs(rec.ID, rec.Telaio, rec.Success, rec.ErrorKind, rec.DurationMs).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RecordLookup(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecordLookup_DBError(t *testing.T) {
	repo, mock, cleanup := setupLookupMock(t)
	defer cleanup()

	wantErr := errors.New("insert failed")
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO lookups`)).
		WillReturnError(wantErr)

	err := repo.RecordLookup(context.Background(), models.LookupRecord{ID: "x"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}

func TestCountRecent(t *testing.T) {
	repo, mock, cleanup := setupLookupMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM lookups WHERE telaio = $1`)).
		WithArgs("X1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountRecent(context.Background(), "X1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
