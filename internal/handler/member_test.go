package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/moimlab/moim-server/internal/repository"
)

func TestMemberJoinRejectsBadBody(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	h := NewMemberHandler(repository.NewEventRepo(db), repository.NewMemberRepo(db))

	newCtx := func(body string) (echo.Context, *httptest.ResponseRecorder) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/events/:id/members")
		c.SetParamNames("id")
		c.SetParamValues("10")
		c.Set("user_id", uint64(9))
		return c, rec
	}

	t.Run("MalformedJSON", func(t *testing.T) {
		c, rec := newCtx(`{"status": `)
		assert.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "잘못된 요청입니다.")
	})

	t.Run("UnknownStatus", func(t *testing.T) {
		c, rec := newCtx(`{"status":"MAYBE"}`)
		assert.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "유효하지 않은 참석 상태입니다.")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
