package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func noticeRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	return sqlmock.NewRows([]string{"id", "event_id", "author_id", "content", "created_at", "updated_at"})
}

func TestNoticeRepoUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewNoticeRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("AuthorOnly", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notices WHERE id=\\?").
			WithArgs(uint64(4)).
			WillReturnRows(noticeRows(t).AddRow(4, 10, 5, "회비 입금 부탁드립니다", now, now))

		_, err := repo.Update(ctx, 6, 4, "수정된 공지")
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notices WHERE id=\\?").
			WithArgs(uint64(4)).
			WillReturnRows(noticeRows(t).AddRow(4, 10, 5, "회비 입금 부탁드립니다", now, now))
		mock.ExpectExec("UPDATE notices SET content=\\? WHERE id=\\?").
			WithArgs("수정된 공지", uint64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("SELECT (.+) FROM notices WHERE id=\\?").
			WithArgs(uint64(4)).
			WillReturnRows(noticeRows(t).AddRow(4, 10, 5, "수정된 공지", now, now))

		got, err := repo.Update(ctx, 5, 4, "수정된 공지")
		assert.NoError(t, err)
		assert.Equal(t, "수정된 공지", got.Content)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepoDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	repo := NewNoticeRepo(db)
	ctx := context.Background()
	now := time.Now()

	t.Run("HostMayDelete", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notices WHERE id=\\?").
			WithArgs(uint64(4)).
			WillReturnRows(noticeRows(t).AddRow(4, 10, 5, "공지", now, now))
		mock.ExpectQuery("SELECT host_id FROM events WHERE id=\\?").
			WithArgs(uint64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow(8))
		mock.ExpectExec("DELETE FROM notices WHERE id=\\?").
			WithArgs(uint64(4)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, 8, 4))
	})

	t.Run("StrangerForbidden", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM notices WHERE id=\\?").
			WithArgs(uint64(4)).
			WillReturnRows(noticeRows(t).AddRow(4, 10, 5, "공지", now, now))
		mock.ExpectQuery("SELECT host_id FROM events WHERE id=\\?").
			WithArgs(uint64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"host_id"}).AddRow(8))

		assert.ErrorIs(t, repo.Delete(ctx, 9, 4), ErrForbidden)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
