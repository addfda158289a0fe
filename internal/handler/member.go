package handler

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/moimlab/moim-server/internal/model"
    "github.com/moimlab/moim-server/internal/queue"
    "github.com/moimlab/moim-server/internal/repository"
    queuepublisher "github.com/moimlab/moim-server/internal/service"
)

// MemberHandler serves RSVP membership for authenticated users.
type MemberHandler struct {
    Events  *repository.EventRepo
    Members *repository.MemberRepo
}

func NewMemberHandler(e *repository.EventRepo, m *repository.MemberRepo) *MemberHandler {
    if e == nil || m == nil {
        panic("nil repository passed to NewMemberHandler")
    }
    return &MemberHandler{Events: e, Members: m}
}

type memberResp struct {
    ID        uint64    `json:"id"`
    EventID   uint64    `json:"event_id"`
    UserID    *uint64   `json:"user_id,omitempty"`
    GuestName *string   `json:"guest_name,omitempty"`
    Status    string    `json:"status"`
    HasPaid   bool      `json:"has_paid"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toMemberResp(m model.EventMember) memberResp {
    return memberResp{
        ID:        m.ID,
        EventID:   m.EventID,
        UserID:    m.UserID,
        GuestName: m.GuestName,
        Status:    m.Status,
        HasPaid:   m.HasPaid,
        CreatedAt: m.CreatedAt,
        UpdatedAt: m.UpdatedAt,
    }
}

func toMemberResps(ms []model.EventMember) []memberResp {
    out := make([]memberResp, len(ms))
    for i, m := range ms {
        out[i] = toMemberResp(m)
    }
    return out
}

// Join handles POST /v1/events/:id/members: the caller joins the moim
// with an optional initial attendance status (default PENDING).
func (h *MemberHandler) Join(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    var req struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "잘못된 요청입니다."})
    }
    status, ok := normalizeAttendance(req.Status)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 참석 상태입니다."})
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

    m := model.EventMember{EventID: eventID, UserID: &userID, Status: status}
    if err := h.Members.Create(ctx, &m); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "이미 참여 중인 모임입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 추가에 실패했습니다."})
    }
    if status == model.Attending {
        publishRSVP(ev, m)
    }
    return c.JSON(http.StatusCreated, toMemberResp(m))
}

// List handles GET /v1/events/:id/members with an optional ?status=
// filter.
func (h *MemberHandler) List(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    status := ""
    if raw := c.QueryParam("status"); raw != "" {
        s, ok := normalizeAttendance(raw)
        if !ok {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 참석 상태입니다."})
        }
        status = s
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    members, err := h.Members.ListByEvent(ctx, eventID, status, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 목록 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toMemberResps(members))
}

// Get handles GET /v1/events/:id/members/:memberID.
func (h *MemberHandler) Get(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    memberID, ok := pathID(c, "memberID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "참여자 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    m, err := h.Members.GetByID(ctx, eventID, memberID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 참여자입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toMemberResp(m))
}

// UpdateStatus handles PATCH /v1/events/:id/members/:memberID/status.
// The member themselves or the host may change attendance. A change
// that lands on ATTENDING publishes an RSVP-confirmed message.
func (h *MemberHandler) UpdateStatus(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    memberID, ok := pathID(c, "memberID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "참여자 ID가 필요합니다."})
    }
    var req struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil || req.Status == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "참석 상태가 필요합니다."})
    }
    status, ok := normalizeAttendance(req.Status)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 참석 상태입니다."})
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
    m, err := h.Members.GetByID(ctx, eventID, memberID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 참여자입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 조회에 실패했습니다."})
    }
    if !canManageMember(userID, ev, m) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "권한이 없습니다."})
    }

    wasAttending := m.Status == model.Attending
    updated, err := h.Members.UpdateStatus(ctx, eventID, memberID, status)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 참여자입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참석 상태 업데이트에 실패했습니다."})
    }
    if !wasAttending && updated.Status == model.Attending {
        publishRSVP(ev, updated)
    }
    return c.JSON(http.StatusOK, toMemberResp(updated))
}

// Remove handles DELETE /v1/events/:id/members/:memberID. The host may
// remove anyone; a member may remove themselves.
func (h *MemberHandler) Remove(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    memberID, ok := pathID(c, "memberID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "참여자 ID가 필요합니다."})
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
    m, err := h.Members.GetByID(ctx, eventID, memberID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 참여자입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 조회에 실패했습니다."})
    }
    if !canManageMember(userID, ev, m) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "권한이 없습니다."})
    }

    if err := h.Members.Delete(ctx, eventID, memberID); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 참여자입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 제거에 실패했습니다."})
    }
    return c.NoContent(http.StatusNoContent)
}

// canManageMember reports whether the caller may change a member row:
// the event host always, the member when the row belongs to them.
func canManageMember(callerID uint64, ev model.Event, m model.EventMember) bool {
    if ev.HostID == callerID {
        return true
    }
    return m.UserID != nil && *m.UserID == callerID
}

// publishRSVP sends an rsvp.confirmed message. Publish failures are
// logged by the publisher and never fail the HTTP request.
func publishRSVP(ev model.Event, m model.EventMember) {
    msg := queue.RSVPConfirmedEvent{
        MemberID:    m.ID,
        EventID:     ev.ID,
        EventTitle:  ev.Title,
        HostID:      ev.HostID,
        UserID:      m.UserID,
        GuestName:   m.GuestName,
        Fee:         ev.Fee,
        ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
    }
    go func() {
        pubCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = queuepublisher.PublishRSVPConfirmed(pubCtx, msg)
    }()
}
