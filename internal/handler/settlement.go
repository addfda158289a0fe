package handler

import (
    "context"
    "database/sql"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/moimlab/moim-server/internal/model"
    "github.com/moimlab/moim-server/internal/repository"
    "github.com/moimlab/moim-server/internal/settlement"
)

// SettlementHandler serves the fee-settlement views of an event. All
// figures are scoped to ATTENDING members: people who declined do not
// owe a share.
type SettlementHandler struct {
    Events  *repository.EventRepo
    Members *repository.MemberRepo
}

func NewSettlementHandler(e *repository.EventRepo, m *repository.MemberRepo) *SettlementHandler {
    if e == nil || m == nil {
        panic("nil repository passed to NewSettlementHandler")
    }
    return &SettlementHandler{Events: e, Members: m}
}

// Summary handles GET /v1/events/:id/settlement: the event, its
// attending members and the per-person split.
func (h *SettlementHandler) Summary(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
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
    attending, err := h.Members.ListByEvent(ctx, eventID, model.Attending, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 조회에 실패했습니다."})
    }

    sum := settlement.Summarize(ev.Fee, attending)
    return c.JSON(http.StatusOK, echo.Map{
        "event":      toEventResp(ev),
        "members":    toMemberResps(attending),
        "settlement": sum,
    })
}

// Stats handles GET /v1/events/:id/settlement/stats: paid/unpaid
// counts and the payment rate over attending members.
func (h *SettlementHandler) Stats(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if _, err := h.Events.GetByID(ctx, eventID); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 모임입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 조회에 실패했습니다."})
    }
    members, err := h.Members.ListByEvent(ctx, eventID, "", nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "납부 통계 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, settlement.PaymentStatsOverAttending(members))
}

// Unpaid handles GET /v1/events/:id/settlement/unpaid: attending
// members who have not paid yet, newest first.
func (h *SettlementHandler) Unpaid(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    unpaid := false
    members, err := h.Members.ListByEvent(ctx, eventID, model.Attending, &unpaid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "미납자 목록 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toMemberResps(members))
}

// SetPaid handles PUT /v1/events/:id/members/:memberID/payment. Host
// only.
func (h *SettlementHandler) SetPaid(c echo.Context) error {
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
        HasPaid bool `json:"has_paid"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "잘못된 요청입니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.requireHost(ctx, eventID, userID); err != nil {
        return hostError(c, err)
    }
    m, err := h.Members.SetPaid(ctx, eventID, memberID, req.HasPaid)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 참여자입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "납부 상태 업데이트에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toMemberResp(m))
}

// SetPaidBulk handles PUT /v1/events/:id/settlement/payments. Host
// only; all updates apply atomically or not at all.
func (h *SettlementHandler) SetPaidBulk(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    var req struct {
        Updates []repository.PaidUpdate `json:"updates"`
    }
    if err := c.Bind(&req); err != nil || len(req.Updates) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID와 업데이트할 참여자 정보가 필요합니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.requireHost(ctx, eventID, userID); err != nil {
        return hostError(c, err)
    }
    members, err := h.Members.SetPaidBulk(ctx, eventID, req.Updates)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 참여자입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "납부 상태 업데이트에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toMemberResps(members))
}

func (h *SettlementHandler) requireHost(ctx context.Context, eventID, userID uint64) error {
    hostID, err := h.Events.HostID(ctx, eventID)
    if err != nil {
        return err
    }
    if hostID != userID {
        return repository.ErrForbidden
    }
    return nil
}

func hostError(c echo.Context, err error) error {
    switch err {
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "이벤트의 주최자만 납부 상태를 변경할 수 있습니다."})
    case sql.ErrNoRows:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 모임입니다."})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 조회에 실패했습니다."})
}
