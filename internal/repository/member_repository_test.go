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

func memberRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{
		"id", "event_id", "user_id", "guest_name", "status", "has_paid", "created_at", "updated_at",
	})
}

func TestMemberRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewMemberRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		guest := "김철수"
		m := model.EventMember{EventID: 10, GuestName: &guest, Status: model.Attending}

		mock.ExpectExec("INSERT INTO event_members").
			WithArgs(m.EventID, nil, guest, m.Status, false).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectQuery("SELECT (.+) FROM event_members WHERE id=\\? AND event_id=\\?").
			WithArgs(uint64(7), uint64(10)).
			WillReturnRows(memberRows(t).
				AddRow(7, 10, nil, guest, model.Attending, false, now, now))

		err := repo.Create(ctx, &m)
		assert.NoError(t, err)
		assert.Equal(t, uint64(7), m.ID)
		assert.Nil(t, m.UserID)
		if assert.NotNil(t, m.GuestName) {
			assert.Equal(t, guest, *m.GuestName)
		}
	})

	t.Run("DuplicateJoin", func(t *testing.T) {
		uid := uint64(3)
		m := model.EventMember{EventID: 10, UserID: &uid, Status: model.Undecided}

		mock.ExpectExec("INSERT INTO event_members").
			WithArgs(m.EventID, uid, nil, m.Status, false).
			WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

		err := repo.Create(ctx, &m)
		assert.ErrorIs(t, err, ErrConflict)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepoListByEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewMemberRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("StatusAndPaidFilter", func(t *testing.T) {
		unpaid := false
		mock.ExpectQuery("SELECT (.+) FROM event_members WHERE event_id=\\? AND status=\\? AND has_paid=\\? ORDER BY created_at DESC").
			WithArgs(uint64(10), model.Attending, unpaid).
			WillReturnRows(memberRows(t).
				AddRow(2, 10, 5, nil, model.Attending, false, now, now).
				AddRow(1, 10, nil, "박영희", model.Attending, false, now, now))

		got, err := repo.ListByEvent(ctx, 10, model.Attending, &unpaid)
		assert.NoError(t, err)
		if assert.Len(t, got, 2) {
			assert.Equal(t, uint64(5), *got[0].UserID)
			assert.Equal(t, "박영희", *got[1].GuestName)
		}
	})

	t.Run("NoFilters", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM event_members WHERE event_id=\\? ORDER BY created_at DESC").
			WithArgs(uint64(10)).
			WillReturnRows(memberRows(t))

		got, err := repo.ListByEvent(ctx, 10, "", nil)
		assert.NoError(t, err)
		assert.Empty(t, got)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepoSetPaid(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewMemberRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE event_members SET has_paid=\\? WHERE id=\\? AND event_id=\\?").
			WithArgs(true, uint64(7), uint64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM event_members WHERE id=\\? AND event_id=\\?").
			WithArgs(uint64(7), uint64(10)).
			WillReturnRows(memberRows(t).
				AddRow(7, 10, 5, nil, model.Attending, true, now, now))

		got, err := repo.SetPaid(ctx, 10, 7, true)
		assert.NoError(t, err)
		assert.True(t, got.HasPaid)
	})

	t.Run("UnknownMember", func(t *testing.T) {
		mock.ExpectExec("UPDATE event_members SET has_paid=\\? WHERE id=\\? AND event_id=\\?").
			WithArgs(true, uint64(99), uint64(10)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT (.+) FROM event_members WHERE id=\\? AND event_id=\\?").
			WithArgs(uint64(99), uint64(10)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.SetPaid(ctx, 10, 99, true)
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepoSetPaidBulk(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewMemberRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("AllOrNothing", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE event_members SET has_paid=\\?").
			WithArgs(true, uint64(1), uint64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE event_members SET has_paid=\\?").
			WithArgs(false, uint64(2), uint64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
		mock.ExpectQuery("SELECT (.+) FROM event_members WHERE event_id=\\? AND id IN").
			WithArgs(uint64(10), uint64(1), uint64(2)).
			WillReturnRows(memberRows(t).
				AddRow(1, 10, 5, nil, model.Attending, true, now, now).
				AddRow(2, 10, 6, nil, model.Attending, false, now, now))

		got, err := repo.SetPaidBulk(ctx, 10, []PaidUpdate{
			{MemberID: 1, HasPaid: true},
			{MemberID: 2, HasPaid: false},
		})
		assert.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("UnknownMemberRollsBack", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE event_members SET has_paid=\\?").
			WithArgs(true, uint64(99), uint64(10)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT 1 FROM event_members WHERE id=\\? AND event_id=\\?").
			WithArgs(uint64(99), uint64(10)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := repo.SetPaidBulk(ctx, 10, []PaidUpdate{{MemberID: 99, HasPaid: true}})
		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemberRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewMemberRepo(db)
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM event_members WHERE id=\\? AND event_id=\\?").
			WithArgs(uint64(7), uint64(10)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 10, 7))
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM event_members WHERE id=\\? AND event_id=\\?").
			WithArgs(uint64(99), uint64(10)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, 10, 99), sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
