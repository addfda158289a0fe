package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/moimlab/moim-server/internal/model"
	"github.com/moimlab/moim-server/internal/repository"
)

func newAdminContext(t *testing.T, query url.Values) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query.Encode(), nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/admin/events")
	return c, rec
}

func TestAdminListEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	h := NewAdminHandler(repository.NewEventRepo(db), repository.NewMemberRepo(db))
	now := time.Now()

	t.Run("Success", func(t *testing.T) {
		cols := []string{
			"id", "host_id", "title", "description", "date", "location", "fee",
			"max_attendees", "status", "invite_code", "created_at", "updated_at",
			"name", "attendee_count", "revenue",
		}
		mock.ExpectQuery("FROM events e").
			WithArgs(model.EventRecruiting, 50, 0).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(1, 5, "주말 등산 모임", nil, now, "북한산", 10000,
					nil, model.EventRecruiting, "Ab3xY9kQw", now, now,
					"이민지", 3, 30000))

		q := url.Values{}
		q.Set("status", "RECRUITING")
		c, rec := newAdminContext(t, q)
		assert.NoError(t, h.ListEvents(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"host_name":"이민지"`)
		assert.Contains(t, rec.Body.String(), `"revenue":30000`)
	})

	t.Run("BadSortBy", func(t *testing.T) {
		q := url.Values{}
		q.Set("sort_by", "fee")
		c, rec := newAdminContext(t, q)
		assert.NoError(t, h.ListEvents(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("BadLimit", func(t *testing.T) {
		q := url.Values{}
		q.Set("limit", "0")
		c, rec := newAdminContext(t, q)
		assert.NoError(t, h.ListEvents(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
