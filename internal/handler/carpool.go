package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/moimlab/moim-server/internal/carpool"
    "github.com/moimlab/moim-server/internal/model"
    "github.com/moimlab/moim-server/internal/repository"
)

// CarpoolHandler serves carpool offers and ride requests. Join and
// accept run inside a transaction that locks the carpool row, so the
// seat count can never be oversubscribed by concurrent requests.
type CarpoolHandler struct {
    Events   *repository.EventRepo
    Carpools *repository.CarpoolRepo
}

func NewCarpoolHandler(e *repository.EventRepo, cp *repository.CarpoolRepo) *CarpoolHandler {
    if e == nil || cp == nil {
        panic("nil repository passed to NewCarpoolHandler")
    }
    return &CarpoolHandler{Events: e, Carpools: cp}
}

// ----- DTOs -----

type carpoolResp struct {
    ID        uint64    `json:"id"`
    EventID   uint64    `json:"event_id"`
    DriverID  uint64    `json:"driver_id"`
    Seats     uint8     `json:"seats"`
    Departure string    `json:"departure"`
    CreatedAt time.Time `json:"created_at"`
}

type carpoolDetailResp struct {
    carpoolResp
    AcceptedCount  int `json:"accepted_count"`
    PendingCount   int `json:"pending_count"`
    AvailableSeats int `json:"available_seats"`
}

type requestResp struct {
    ID        uint64    `json:"id"`
    CarpoolID uint64    `json:"carpool_id"`
    UserID    uint64    `json:"user_id"`
    Status    string    `json:"status"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func toCarpoolResp(cp model.Carpool) carpoolResp {
    return carpoolResp{
        ID:        cp.ID,
        EventID:   cp.EventID,
        DriverID:  cp.DriverID,
        Seats:     cp.Seats,
        Departure: cp.Departure,
        CreatedAt: cp.CreatedAt,
    }
}

func toRequestResp(cr model.CarpoolRequest) requestResp {
    return requestResp{
        ID:        cr.ID,
        CarpoolID: cr.CarpoolID,
        UserID:    cr.UserID,
        Status:    cr.Status,
        CreatedAt: cr.CreatedAt,
        UpdatedAt: cr.UpdatedAt,
    }
}

// Create handles POST /v1/events/:id/carpools. The caller becomes the
// driver; seat count must be between 1 and 7.
func (h *CarpoolHandler) Create(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    var req struct {
        Seats     uint8  `json:"seats"`
        Departure string `json:"departure"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "잘못된 요청입니다."})
    }
    if req.Seats < model.MinCarpoolSeats || req.Seats > model.MaxCarpoolSeats {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "탑승 가능 인원은 1명 이상 7명 이하여야 합니다."})
    }
    req.Departure = strings.TrimSpace(req.Departure)
    if req.Departure == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "출발 장소가 필요합니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if _, err := h.Events.GetByID(ctx, eventID); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 모임입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "이벤트 조회에 실패했습니다."})
    }

    cp := model.Carpool{EventID: eventID, DriverID: userID, Seats: req.Seats, Departure: req.Departure}
    if err := h.Carpools.Create(ctx, &cp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 등록에 실패했습니다."})
    }
    return c.JSON(http.StatusCreated, toCarpoolResp(cp))
}

// List handles GET /v1/events/:id/carpools, newest first.
func (h *CarpoolHandler) List(c echo.Context) error {
    eventID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    carpools, err := h.Carpools.ListByEvent(ctx, eventID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 목록 조회에 실패했습니다."})
    }
    out := make([]carpoolResp, len(carpools))
    for i, cp := range carpools {
        out[i] = toCarpoolResp(cp)
    }
    return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/carpools/:carpoolID: the offer plus request
// counts and remaining seats.
func (h *CarpoolHandler) Get(c echo.Context) error {
    carpoolID, ok := pathID(c, "carpoolID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "카풀 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    cp, err := h.Carpools.GetByID(ctx, carpoolID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 카풀입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 조회에 실패했습니다."})
    }
    counts, err := h.Carpools.CountsByStatus(ctx, carpoolID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "신청자 정보 조회에 실패했습니다."})
    }
    return c.JSON(http.StatusOK, carpoolDetailResp{
        carpoolResp:    toCarpoolResp(cp),
        AcceptedCount:  counts.Accepted,
        PendingCount:   counts.Pending,
        AvailableSeats: carpool.AvailableSeats(cp.Seats, counts.Accepted),
    })
}

// Requests handles GET /v1/carpools/:carpoolID/requests. Driver only,
// with an optional ?status= filter.
func (h *CarpoolHandler) Requests(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    carpoolID, ok := pathID(c, "carpoolID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "카풀 ID가 필요합니다."})
    }
    status := strings.ToUpper(strings.TrimSpace(c.QueryParam("status")))
    switch status {
    case "", model.RequestPending, model.RequestAccepted, model.RequestRejected:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 상태입니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    cp, err := h.Carpools.GetByID(ctx, carpoolID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 카풀입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 조회에 실패했습니다."})
    }
    if cp.DriverID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "권한이 없습니다."})
    }
    requests, err := h.Carpools.ListRequests(ctx, carpoolID, status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 신청 목록 조회에 실패했습니다."})
    }
    out := make([]requestResp, len(requests))
    for i, cr := range requests {
        out[i] = toRequestResp(cr)
    }
    return c.JSON(http.StatusOK, out)
}

// Join handles POST /v1/carpools/:carpoolID/join. The capacity check,
// the duplicate check and the insert run in one transaction holding a
// lock on the carpool row; two riders racing for the last seat cannot
// both get in.
func (h *CarpoolHandler) Join(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    carpoolID, ok := pathID(c, "carpoolID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "카풀 ID가 필요합니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    tx, err := h.Carpools.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 신청에 실패했습니다."})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    cp, err := h.Carpools.GetForUpdateTx(ctx, tx, carpoolID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 카풀입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 조회에 실패했습니다."})
    }
    accepted, err := h.Carpools.AcceptedCountTx(ctx, tx, carpoolID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "정원 확인에 실패했습니다."})
    }
    already, err := h.Carpools.HasRequestTx(ctx, tx, carpoolID, userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 신청에 실패했습니다."})
    }
    switch err := carpool.Admit(cp.Seats, accepted, already); err {
    case nil:
    case carpool.ErrAlreadyRequested:
        return c.JSON(http.StatusConflict, echo.Map{"error": "이미 신청한 카풀입니다."})
    case carpool.ErrFull:
        return c.JSON(http.StatusConflict, echo.Map{"error": "카풀이 만석입니다."})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 신청에 실패했습니다."})
    }

    reqID, err := h.Carpools.CreateRequestTx(ctx, tx, carpoolID, userID, model.RequestPending)
    if err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "이미 신청한 카풀입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 신청에 실패했습니다."})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 신청에 실패했습니다."})
    }
    committed = true
    return c.JSON(http.StatusCreated, echo.Map{
        "id":         reqID,
        "carpool_id": carpoolID,
        "user_id":    userID,
        "status":     model.RequestPending,
    })
}

// Decide handles PATCH /v1/carpools/:carpoolID/requests/:requestID.
// Driver only; accepting re-runs the capacity check under the same
// row lock used by Join.
func (h *CarpoolHandler) Decide(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    carpoolID, ok := pathID(c, "carpoolID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "카풀 ID가 필요합니다."})
    }
    requestID, ok := pathID(c, "requestID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "신청 ID가 필요합니다."})
    }
    var req struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "잘못된 요청입니다."})
    }
    status := strings.ToUpper(strings.TrimSpace(req.Status))
    if status != model.RequestAccepted && status != model.RequestRejected {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "유효하지 않은 상태입니다."})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    tx, err := h.Carpools.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "상태 변경에 실패했습니다."})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    cp, err := h.Carpools.GetForUpdateTx(ctx, tx, carpoolID)
    if err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 카풀입니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 조회에 실패했습니다."})
    }
    if cp.DriverID != userID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "권한이 없습니다."})
    }
    cr, err := h.Carpools.GetRequestTx(ctx, tx, requestID)
    if err != nil || cr.CarpoolID != carpoolID {
        if err == sql.ErrNoRows || (err == nil && cr.CarpoolID != carpoolID) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "해당 카풀 신청이 없습니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "신청 조회에 실패했습니다."})
    }
    if status == model.RequestAccepted && cr.Status != model.RequestAccepted {
        accepted, err := h.Carpools.AcceptedCountTx(ctx, tx, carpoolID)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "정원 확인에 실패했습니다."})
        }
        if accepted >= int(cp.Seats) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "카풀이 만석입니다."})
        }
    }
    if err := h.Carpools.UpdateRequestStatusTx(ctx, tx, requestID, status); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "상태 변경에 실패했습니다."})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "상태 변경에 실패했습니다."})
    }
    committed = true

    cr.Status = status
    return c.JSON(http.StatusOK, toRequestResp(cr))
}

// Leave handles DELETE /v1/carpools/:carpoolID/join: the caller
// withdraws their own ride request, whatever its status.
func (h *CarpoolHandler) Leave(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    carpoolID, ok := pathID(c, "carpoolID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "카풀 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Carpools.DeleteRequest(ctx, carpoolID, userID); err != nil {
        if err == sql.ErrNoRows {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "해당 카풀 신청이 없습니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 취소에 실패했습니다."})
    }
    return c.NoContent(http.StatusNoContent)
}

// Mine handles GET /v1/carpools/mine: carpools the caller has
// requested, optionally narrowed with ?event_id=.
func (h *CarpoolHandler) Mine(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    var eventID uint64
    if raw := c.QueryParam("event_id"); raw != "" {
        if n, ok := parseQueryID(raw); ok {
            eventID = n
        } else {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "이벤트 ID가 필요합니다."})
        }
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    carpools, err := h.Carpools.ListByRequester(ctx, userID, eventID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 신청 목록 조회에 실패했습니다."})
    }
    out := make([]carpoolResp, len(carpools))
    for i, cp := range carpools {
        out[i] = toCarpoolResp(cp)
    }
    return c.JSON(http.StatusOK, out)
}

// Delete handles DELETE /v1/carpools/:carpoolID. Driver only.
func (h *CarpoolHandler) Delete(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "로그인이 필요합니다."})
    }
    carpoolID, ok := pathID(c, "carpoolID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "카풀 ID가 필요합니다."})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
    defer cancel()

    if err := h.Carpools.Delete(ctx, userID, carpoolID); err != nil {
        switch err {
        case sql.ErrNoRows:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "존재하지 않는 카풀입니다."})
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "권한이 없습니다."})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "카풀 삭제에 실패했습니다."})
    }
    return c.NoContent(http.StatusNoContent)
}
