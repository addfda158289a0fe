package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/moimlab/moim-server/internal/model"
	"github.com/moimlab/moim-server/internal/repository"
)

func newJoinContext(t *testing.T, carpoolID string, userID uint64) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/carpools/:carpoolID/join")
	c.SetParamNames("carpoolID")
	c.SetParamValues(carpoolID)
	c.Set("user_id", userID)
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func TestCarpoolJoin(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("stub database: %v", err)
	}
	defer db.Close()

	h := NewCarpoolHandler(repository.NewEventRepo(db), repository.NewCarpoolRepo(db))
	now := time.Now()
	carpoolCols := []string{"id", "event_id", "driver_id", "seats", "departure", "created_at"}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM carpools WHERE id=\\? FOR UPDATE").
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(carpoolCols).AddRow(3, 10, 5, 4, "강남역", now))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM carpool_requests").
			WithArgs(uint64(3), model.RequestAccepted).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
		mock.ExpectQuery("SELECT 1 FROM carpool_requests").
			WithArgs(uint64(3), uint64(9)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO carpool_requests").
			WithArgs(uint64(3), uint64(9), model.RequestPending).
			WillReturnResult(sqlmock.NewResult(21, 1))
		mock.ExpectCommit()

		c, rec := newJoinContext(t, "3", 9)
		assert.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, float64(21), body["id"])
		assert.Equal(t, model.RequestPending, body["status"])
	})

	t.Run("Full", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM carpools WHERE id=\\? FOR UPDATE").
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(carpoolCols).AddRow(3, 10, 5, 2, "강남역", now))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM carpool_requests").
			WithArgs(uint64(3), model.RequestAccepted).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(2))
		mock.ExpectQuery("SELECT 1 FROM carpool_requests").
			WithArgs(uint64(3), uint64(9)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		c, rec := newJoinContext(t, "3", 9)
		assert.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "카풀이 만석입니다.", decodeBody(t, rec)["error"])
	})

	t.Run("AlreadyRequested", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM carpools WHERE id=\\? FOR UPDATE").
			WithArgs(uint64(3)).
			WillReturnRows(sqlmock.NewRows(carpoolCols).AddRow(3, 10, 5, 4, "강남역", now))
		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM carpool_requests").
			WithArgs(uint64(3), model.RequestAccepted).
			WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))
		mock.ExpectQuery("SELECT 1 FROM carpool_requests").
			WithArgs(uint64(3), uint64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
		mock.ExpectRollback()

		c, rec := newJoinContext(t, "3", 9)
		assert.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "이미 신청한 카풀입니다.", decodeBody(t, rec)["error"])
	})

	t.Run("UnknownCarpool", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM carpools WHERE id=\\? FOR UPDATE").
			WithArgs(uint64(99)).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		c, rec := newJoinContext(t, "99", 9)
		assert.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "존재하지 않는 카풀입니다.", decodeBody(t, rec)["error"])
	})

	t.Run("NoSession", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/v1/carpools/:carpoolID/join")
		c.SetParamNames("carpoolID")
		c.SetParamValues("3")

		assert.NoError(t, h.Join(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
