package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/moimlab/moim-server/internal/model"
    "github.com/moimlab/moim-server/internal/repository"
)

// InviteHandler serves the public invite endpoints. No authentication:
// anyone holding an invite link can preview the moim and join as a
// guest by name.
type InviteHandler struct {
    Events  *repository.EventRepo
    Members *repository.MemberRepo
}

func NewInviteHandler(e *repository.EventRepo, m *repository.MemberRepo) *InviteHandler {
    if e == nil || m == nil {
        panic("nil repository passed to NewInviteHandler")
    }
    return &InviteHandler{Events: e, Members: m}
}

// Get handles GET /v1/invites/:code. Same payload as the protected
// event detail so the join page can render without an account.
func (h *InviteHandler) Get(c echo.Context) error {
    code := strings.TrimSpace(c.Param("code"))
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "초대 코드가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    ev, err := h.Events.GetByInviteCode(ctx, code)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 초대 코드입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 조회에 실패했습니다."})
    }
    members, err := h.Members.ListByEvent(ctx, ev.ID, "", nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, detailOf(ev, members))
}

// Join handles POST /v1/invites/:code/join. Guests join by display
// name; one row per name per moim.
func (h *InviteHandler) Join(c echo.Context) error {
    code := strings.TrimSpace(c.Param("code"))
    if code == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "초대 코드가 필요합니다."})
    }
    var req struct {
        GuestName string `json:"guest_name"`
        Status    string `json:"status"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "잘못된 요청입니다."})
    }
    name := strings.TrimSpace(req.GuestName)
    if name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "사용자 ID 또는 게스트 이름이 필요합니다."})
    }
    status, ok := normalizeAttendance(req.Status)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 참석 상태입니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    ev, err := h.Events.GetByInviteCode(ctx, code)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 초대 코드입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 조회에 실패했습니다."})
    }

    m := model.EventMember{EventID: ev.ID, GuestName: &name, Status: status}
    if err := h.Members.Create(ctx, &m); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "이미 참여 중인 모임입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 추가에 실패했습니다."})
    }
    if m.Status == model.Attending {
        publishRSVP(ev, m)
    }
    return c.JSON(http.StatusCreated, toMemberResp(m))
}

// normalizeAttendance validates an attendance status, defaulting an
// empty value to PENDING.
func normalizeAttendance(raw string) (string, bool) {
    s := strings.ToUpper(strings.TrimSpace(raw))
    if s == "" {
        return model.Undecided, true
    }
    switch s {
    case model.Attending, model.NotAttending, model.Undecided:
        return s, true
    }
    return "", false
}
