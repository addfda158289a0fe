package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/moimlab/moim-server/internal/model"
    "github.com/moimlab/moim-server/internal/repository"
)

// NoticeHandler serves event announcements. The host and members may
// post; only the author edits; the author or the host deletes.
type NoticeHandler struct {
    Events  *repository.EventRepo
    Members *repository.MemberRepo
    Notices *repository.NoticeRepo
}

func NewNoticeHandler(e *repository.EventRepo, m *repository.MemberRepo, n *repository.NoticeRepo) *NoticeHandler {
    if e == nil || m == nil || n == nil {
        panic("nil repository passed to NewNoticeHandler")
    }
    return &NoticeHandler{Events: e, Members: m, Notices: n}
}

const (
    recentNoticesDefault = 5
    recentNoticesMax     = 50
)

type noticeResp struct {
    ID        uint64    `json:"id"`
    EventID   uint64    `json:"event_id"`
    AuthorID  uint64    `json:"author_id"`
    Content   string    `json:"content"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toNoticeResp(n model.Notice) noticeResp {
    return noticeResp{
        ID:        n.ID,
        EventID:   n.EventID,
        AuthorID:  n.AuthorID,
        Content:   n.Content,
        CreatedAt: n.CreatedAt,
        UpdatedAt: n.UpdatedAt,
    }
}

func toNoticeResps(ns []model.Notice) []noticeResp {
    out := make([]noticeResp, len(ns))
    for i, n := range ns {
        out[i] = toNoticeResp(n)
    }
    return out
}

// Create handles POST /v1/events/:id/notices.
func (h *NoticeHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    var req struct {
        Content string `json:"content"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "잘못된 요청입니다."})
    }
    req.Content = strings.TrimSpace(req.Content)
    if req.Content == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "공지사항 내용이 필요합니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    ev, err := h.Events.GetByID(ctx, eventID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 모임입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 조회에 실패했습니다."})
    }
    if ev.HostID != userID {
        isMember, err := h.Members.IsMember(ctx, eventID, userID)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 조회에 실패했습니다."})
        }
        if !isMember {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "권한이 없습니다."})
        }
    }

    n := model.Notice{EventID: eventID, AuthorID: userID, Content: req.Content}
    if err := h.Notices.Create(ctx, &n); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "공지사항 생성에 실패했습니다."})
    }
    return c.JSON(http.StatusCreated, toNoticeResp(n))
}

// List handles GET /v1/events/:id/notices, newest first. An optional
// ?limit= caps the result (1–50); without it every notice is returned.
func (h *NoticeHandler) List(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    limit := 0
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 || n > recentNoticesMax {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit은 1 이상 50 이하여야 합니다."})
        }
        limit = n
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    notices, err := h.Notices.ListByEvent(ctx, eventID, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "공지사항 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toNoticeResps(notices))
}

// Recent handles GET /v1/events/:id/notices/recent: the latest few
// notices for the event dashboard, default 5.
func (h *NoticeHandler) Recent(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    limit := recentNoticesDefault
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 || n > recentNoticesMax {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit은 1 이상 50 이하여야 합니다."})
        }
        limit = n
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    notices, err := h.Notices.ListByEvent(ctx, eventID, limit)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "공지사항 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toNoticeResps(notices))
}

// Get handles GET /v1/notices/:noticeID.
func (h *NoticeHandler) Get(c echo.Context) error {
    noticeID, ok := pathID(c, "noticeID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "공지사항 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    n, err := h.Notices.GetByID(ctx, noticeID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 공지사항입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "공지사항 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toNoticeResp(n))
}

// Update handles PATCH /v1/notices/:noticeID. Author only.
func (h *NoticeHandler) Update(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    noticeID, ok := pathID(c, "noticeID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "공지사항 ID가 필요합니다."})
    }
    var req struct {
        Content string `json:"content"`
    }
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Content) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "공지사항 ID와 내용이 필요합니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    n, err := h.Notices.Update(ctx, userID, noticeID, strings.TrimSpace(req.Content))
    if err != nil {
        switch err {
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 공지사항입니다."})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "권한이 없습니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "공지사항 수정에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toNoticeResp(n))
}

// Delete handles DELETE /v1/notices/:noticeID. Author or event host.
func (h *NoticeHandler) Delete(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    noticeID, ok := pathID(c, "noticeID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "공지사항 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Notices.Delete(ctx, userID, noticeID); err != nil {
        switch err {
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 공지사항입니다."})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "이 공지사항을 삭제할 권한이 없습니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "공지사항 삭제에 실패했습니다."})
    }
    return c.NoContent(http.StatusNoContent)
}
