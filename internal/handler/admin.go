package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/moimlab/moim-server/internal/model"
    "github.com/moimlab/moim-server/internal/repository"
    "github.com/moimlab/moim-server/internal/settlement"
)

// AdminHandler serves the operator console. Routes are mounted behind
// the ADMIN role middleware.
type AdminHandler struct {
    Events  *repository.EventRepo
    Members *repository.MemberRepo
}

func NewAdminHandler(e *repository.EventRepo, m *repository.MemberRepo) *AdminHandler {
    if e == nil || m == nil {
        panic("nil repository passed to NewAdminHandler")
    }
    return &AdminHandler{Events: e, Members: m}
}

const (
    adminListDefaultLimit = 50
    adminListMaxLimit     = 200
    activeUserWindow      = 30 * 24 * time.Hour
)

type adminStatsResp struct {
    TotalEvents      int    `json:"total_events"`
    ActiveUsers      int    `json:"active_users"`
    ThisMonthRevenue uint64 `json:"this_month_revenue"`
    TotalRevenue     uint64 `json:"total_revenue"`
}

type adminEventItem struct {
    eventResp
    HostName      string `json:"host_name"`
    AttendeeCount int    `json:"attendee_count"`
    Revenue       uint64 `json:"revenue"`
}

// Stats handles GET /v1/admin/stats: total moim count, users active in
// the last 30 days, and revenue (fee × attending count) for this
// calendar month and all time.
func (h *AdminHandler) Stats(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    total, err := h.Events.CountAll(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "통계 조회에 실패했습니다."})
    }
    now := time.Now().UTC()
    active, err := h.Members.ActiveUserCount(ctx, now.Add(-activeUserWindow))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "통계 조회에 실패했습니다."})
    }
    rows, err := h.Events.RevenueRows(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "통계 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, adminStatsResp{
        TotalEvents:      total,
        ActiveUsers:      active,
        ThisMonthRevenue: settlement.MonthRevenue(rows, now),
        TotalRevenue:     settlement.Revenue(rows),
    })
}

// ListEvents handles GET /v1/admin/events with ?status=, ?sort_by=
// (date|revenue|attendees), ?order= (asc|desc), ?limit= and ?offset=.
func (h *AdminHandler) ListEvents(c echo.Context) error {
    opts := repository.AdminListOptions{
        SortBy: "date",
        Desc:   true,
        Limit:  adminListDefaultLimit,
    }
    if raw := strings.ToUpper(strings.TrimSpace(c.QueryParam("status"))); raw != "" {
        switch raw {
        case model.EventRecruiting, model.EventConfirmed, model.EventCompleted:
            opts.Status = raw
        default:
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 상태입니다."})
        }
    }
    if raw := strings.ToLower(strings.TrimSpace(c.QueryParam("sort_by"))); raw != "" {
        switch raw {
        case "date", "revenue", "attendees":
            opts.SortBy = raw
        default:
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 정렬 기준입니다."})
        }
    }
    if raw := strings.ToLower(strings.TrimSpace(c.QueryParam("order"))); raw != "" {
        switch raw {
        case "asc":
            opts.Desc = false
        case "desc":
            opts.Desc = true
        default:
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 정렬 순서입니다."})
        }
    }
    if raw := c.QueryParam("limit"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 || n > adminListMaxLimit {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit이 올바르지 않습니다."})
        }
        opts.Limit = n
    }
    if raw := c.QueryParam("offset"); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "offset이 올바르지 않습니다."})
        }
        opts.Offset = n
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    rows, err := h.Events.AdminList(ctx, opts)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "모임 목록 조회에 실패했습니다."})
    }
    out := make([]adminEventItem, len(rows))
    for i, row := range rows {
        out[i] = adminEventItem{
            eventResp:     toEventResp(row.Event),
            HostName:      row.HostName,
            AttendeeCount: row.AttendeeCount,
            Revenue:       row.Revenue,
        }
    }
    return c.JSON(http.StatusOK, out)
}
