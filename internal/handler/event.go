package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/moimlab/moim-server/internal/model"
    "github.com/moimlab/moim-server/internal/repository"
    "github.com/moimlab/moim-server/internal/settlement"
    "github.com/moimlab/moim-server/internal/utils"
)

// EventHandler serves moim CRUD and the aggregated detail view.
type EventHandler struct {
    Events  *repository.EventRepo
    Members *repository.MemberRepo
}

func NewEventHandler(e *repository.EventRepo, m *repository.MemberRepo) *EventHandler {
    if e == nil || m == nil {
        panic("nil repository passed to NewEventHandler")
    }
    return &EventHandler{Events: e, Members: m}
}

// ----- DTOs -----

type createEventReq struct {
    Title        string  `json:"title"`
    Description  *string `json:"description"`
    Date         string  `json:"date"` // RFC3339
    Location     string  `json:"location"`
    Fee          uint32  `json:"fee"`
    MaxAttendees *uint32 `json:"max_attendees"`
}

type updateEventReq struct {
    Title        *string `json:"title"`
    Description  *string `json:"description"`
    Date         *string `json:"date"`
    Location     *string `json:"location"`
    Fee          *uint32 `json:"fee"`
    MaxAttendees *uint32 `json:"max_attendees"`
}

type eventResp struct {
    ID           uint64    `json:"id"`
    HostID       uint64    `json:"host_id"`
    Title        string    `json:"title"`
    Description  *string   `json:"description,omitempty"`
    Date         time.Time `json:"date"`
    Location     string    `json:"location"`
    Fee          uint32    `json:"fee"`
    MaxAttendees *uint32   `json:"max_attendees,omitempty"`
    Status       string    `json:"status"`
    InviteCode   string    `json:"invite_code"`
    CreatedAt    time.Time `json:"created_at"`
}

type eventDetailResp struct {
    eventResp
    settlement.AttendanceTally
    PaidCount   int `json:"paid_count"`
    UnpaidCount int `json:"unpaid_count"`
}

func toEventResp(ev model.Event) eventResp {
    return eventResp{
        ID:           ev.ID,
        HostID:       ev.HostID,
        Title:        ev.Title,
        Description:  ev.Description,
        Date:         ev.Date,
        Location:     ev.Location,
        Fee:          ev.Fee,
        MaxAttendees: ev.MaxAttendees,
        Status:       ev.Status,
        InviteCode:   ev.InviteCode,
        CreatedAt:    ev.CreatedAt,
    }
}

func toEventResps(evs []model.Event) []eventResp {
    out := make([]eventResp, len(evs))
    for i, ev := range evs {
        out[i] = toEventResp(ev)
    }
    return out
}

// detailOf builds the detail payload: the event plus the attendance
// tally and payment counts over ALL members, whatever their status.
func detailOf(ev model.Event, members []model.EventMember) eventDetailResp {
    stats := settlement.PaymentStatsOverAll(members)
    return eventDetailResp{
        eventResp:       toEventResp(ev),
        AttendanceTally: settlement.Tally(members),
        PaidCount:       stats.Paid,
        UnpaidCount:     stats.Unpaid,
    }
}

// inviteCodeAttempts bounds retries when a generated code collides.
const inviteCodeAttempts = 3

// Create handles POST /v1/events. The caller becomes the host and the
// event starts RECRUITING with a fresh invite code.
func (h *EventHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    var req createEventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "잘못된 요청입니다."})
    }
    req.Title = strings.TrimSpace(req.Title)
    req.Location = strings.TrimSpace(req.Location)
    if req.Title == "" || req.Location == "" || req.Date == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "제목, 날짜, 장소가 필요합니다."})
    }
    date, err := time.Parse(time.RFC3339, req.Date)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "날짜 형식이 올바르지 않습니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    ev := model.Event{
        HostID:       userID,
        Title:        req.Title,
        Description:  req.Description,
        Date:         date,
        Location:     req.Location,
        Fee:          req.Fee,
        MaxAttendees: req.MaxAttendees,
        Status:       model.EventRecruiting,
    }
    for attempt := 0; ; attempt++ {
        code, err := utils.NewInviteCode()
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "초대 코드 생성에 실패했습니다."})
        }
        ev.InviteCode = code
        err = h.Events.Create(ctx, &ev)
        if err == nil {
            break
        }
        if err == repository.ErrConflict && attempt < inviteCodeAttempts-1 {
            continue
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 생성에 실패했습니다."})
    }
    return c.JSON(http.StatusCreated, toEventResp(ev))
}

// List handles GET /v1/events: the caller's hosted and participating
// moims, newest first in each bucket.
func (h *EventHandler) List(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    hosted, err := h.Events.ListByHost(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "모임 조회에 실패했습니다."})
    }
    participating, err := h.Events.ListParticipating(ctx, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "모임 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "hosted":        toEventResps(hosted),
        "participating": toEventResps(participating),
    })
}

// Get handles GET /v1/events/:id. The response carries member counts
// per attendance status and paid/unpaid counts over all members.
func (h *EventHandler) Get(c echo.Context) error {
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
    members, err := h.Members.ListByEvent(ctx, eventID, "", nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "참여자 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, detailOf(ev, members))
}

// Update handles PATCH /v1/events/:id. Host only; absent fields keep
// their stored values.
func (h *EventHandler) Update(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    var req updateEventReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "잘못된 요청입니다."})
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
    if req.Title != nil {
        t := strings.TrimSpace(*req.Title)
        if t == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "제목이 필요합니다."})
        }
        ev.Title = t
    }
    if req.Description != nil {
        ev.Description = req.Description
    }
    if req.Date != nil {
        date, err := time.Parse(time.RFC3339, *req.Date)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "날짜 형식이 올바르지 않습니다."})
        }
        ev.Date = date
    }
    if req.Location != nil {
        l := strings.TrimSpace(*req.Location)
        if l == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "장소가 필요합니다."})
        }
        ev.Location = l
    }
    if req.Fee != nil {
        ev.Fee = *req.Fee
    }
    if req.MaxAttendees != nil {
        ev.MaxAttendees = req.MaxAttendees
    }

    if err := h.Events.Update(ctx, userID, &ev); err != nil {
        switch err {
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "이 모임을 수정할 권한이 없습니다."})
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 모임입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 수정에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toEventResp(ev))
}

// UpdateStatus handles PATCH /v1/events/:id/status. The host may set
// any of the three statuses; there is no fixed progression.
func (h *EventHandler) UpdateStatus(c echo.Context) error {
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
    status := strings.ToUpper(strings.TrimSpace(req.Status))
    switch status {
    case model.EventRecruiting, model.EventConfirmed, model.EventCompleted:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 상태입니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    ev, err := h.Events.UpdateStatus(ctx, userID, eventID, status)
    if err != nil {
        switch err {
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "이 모임을 수정할 권한이 없습니다."})
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 모임입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "상태 변경에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, toEventResp(ev))
}

// Delete handles DELETE /v1/events/:id. Host only; members, carpools
// and notices cascade at the store.
func (h *EventHandler) Delete(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Events.Delete(ctx, userID, eventID); err != nil {
        switch err {
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "이 모임을 삭제할 권한이 없습니다."})
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 모임입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 삭제에 실패했습니다."})
    }
    return c.NoContent(http.StatusNoContent)
}
