package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/moimlab/moim-server/internal/model"
)

func carpoolRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{"id", "event_id", "driver_id", "seats", "departure", "created_at"})
}

func TestCarpoolRepoLockedJoinFlow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewCarpoolRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("RequestCreatedUnderRowLock", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM carpools WHERE id=\\? FOR UPDATE").
			WithArgs(uint64(3)).
			WillReturnRows(carpoolRows(t).AddRow(3, 10, 5, 4, "강남역 2번 출구", now))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM carpool_requests WHERE carpool_id=\\? AND status=\\?").
			WithArgs(uint64(3), model.RequestAccepted).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
		mock.ExpectQuery("SELECT 1 FROM carpool_requests WHERE carpool_id=\\? AND user_id=\\?").
			WithArgs(uint64(3), uint64(9)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO carpool_requests").
			WithArgs(uint64(3), uint64(9), model.RequestPending).
			WillReturnResult(sqlmock.NewResult(21, 1))
		mock.ExpectCommit()

		tx, err := repo.DB().BeginTx(ctx, nil)
		assert.NoError(t, err)

		cp, err := repo.GetForUpdateTx(ctx, tx, 3)
		assert.NoError(t, err)
		assert.Equal(t, uint8(4), cp.Seats)

		accepted, err := repo.AcceptedCountTx(ctx, tx, 3)
		assert.NoError(t, err)
		assert.Equal(t, 2, accepted)

		already, err := repo.HasRequestTx(ctx, tx, 3, 9)
		assert.NoError(t, err)
		assert.False(t, already)

		id, err := repo.CreateRequestTx(ctx, tx, 3, 9, model.RequestPending)
		assert.NoError(t, err)
		assert.Equal(t, uint64(21), id)

		assert.NoError(t, tx.Commit())
	})

	t.Run("DuplicateRequest", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO carpool_requests").
			WithArgs(uint64(3), uint64(9), model.RequestPending).
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))
		mock.ExpectRollback()

		tx, err := repo.DB().BeginTx(ctx, nil)
		assert.NoError(t, err)

		_, err = repo.CreateRequestTx(ctx, tx, 3, 9, model.RequestPending)
		assert.ErrorIs(t, err, ErrConflict)
		assert.NoError(t, tx.Rollback())
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCarpoolRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewCarpoolRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("DriverOnly", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM carpools WHERE id=\\?").
			WithArgs(uint64(3)).
			WillReturnRows(carpoolRows(t).AddRow(3, 10, 5, 4, "판교역", now))

		err := repo.Delete(ctx, 6, 3)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM carpools WHERE id=\\?").
			WithArgs(uint64(3)).
			WillReturnRows(carpoolRows(t).AddRow(3, 10, 5, 4, "판교역", now))
		mock.ExpectExec("DELETE FROM carpools WHERE id=\\?").
			WithArgs(uint64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 5, 3))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCarpoolRepoCountsByStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewCarpoolRepo(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT status, COUNT\\(\\*\\) FROM carpool_requests WHERE carpool_id=\\? GROUP BY status").
		WithArgs(uint64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"status", "n"}).
			AddRow(model.RequestAccepted, 2).
			AddRow(model.RequestPending, 1))

	counts, err := repo.CountsByStatus(ctx, 3)
	assert.NoError(t, err)
	assert.Equal(t, RequestCounts{Accepted: 2, Pending: 1}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCarpoolRepoListByRequester(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewCarpoolRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("AllEvents", func(t *testing.T) {
		mock.ExpectQuery("JOIN carpool_requests cr ON cr.carpool_id = c.id").
			WithArgs(uint64(9)).
			WillReturnRows(carpoolRows(t).
				AddRow(4, 11, 7, 3, "잠실역", now).
				AddRow(3, 10, 5, 4, "강남역", now))

		got, err := repo.ListByRequester(ctx, 9, 0)
		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("SingleEvent", func(t *testing.T) {
		mock.ExpectQuery("JOIN carpool_requests cr ON cr.carpool_id = c.id").
			WithArgs(uint64(9), uint64(10)).
			WillReturnRows(carpoolRows(t).AddRow(3, 10, 5, 4, "강남역", now))

		got, err := repo.ListByRequester(ctx, 9, 10)
		assert.NoError(t, err)
		if assert.Len(t, got, 1) {
			assert.Equal(t, uint64(10), got[0].EventID)
		}
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
