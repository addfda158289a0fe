package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/moimlab/moim-server/internal/model"
)

// CarpoolRepo provides persistence for carpools and ride requests.
// Capacity-sensitive writes go through the *Tx methods so the handler
// can lock the carpool row before counting accepted riders.
type CarpoolRepo struct{ db *sql.DB }

func NewCarpoolRepo(db *sql.DB) *CarpoolRepo { return &CarpoolRepo{db: db} }

// DB exposes the underlying handle for handler-driven transactions.
func (r *CarpoolRepo) DB() *sql.DB { return r.db }

const carpoolColumns = "id, event_id, driver_id, seats, departure, created_at"
const requestColumns = "id, carpool_id, user_id, status, created_at, updated_at"

// Create inserts a carpool and writes the stored row back to cp.
func (r *CarpoolRepo) Create(ctx context.Context, cp *model.Carpool) error {
    const q = `INSERT INTO carpools (event_id, driver_id, seats, departure) VALUES (?,?,?,?)`
    res, err := r.db.ExecContext(ctx, q, cp.EventID, cp.DriverID, cp.Seats, cp.Departure)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    got, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *cp = got
    return nil
}

func (r *CarpoolRepo) GetByID(ctx context.Context, id uint64) (model.Carpool, error) {
    var cp model.Carpool
    err := r.db.QueryRowContext(ctx,
        "SELECT "+carpoolColumns+" FROM carpools WHERE id=? LIMIT 1", id).
        Scan(&cp.ID, &cp.EventID, &cp.DriverID, &cp.Seats, &cp.Departure, &cp.CreatedAt)
    return cp, err
}

// ListByEvent returns an event's carpools, newest first.
func (r *CarpoolRepo) ListByEvent(ctx context.Context, eventID uint64) ([]model.Carpool, error) {
    return r.listCarpools(ctx,
        "SELECT "+carpoolColumns+" FROM carpools WHERE event_id=? ORDER BY created_at DESC",
        eventID)
}

// ListByRequester returns the carpools a user has requested to ride
// in, newest first. A non-zero eventID narrows to one event.
func (r *CarpoolRepo) ListByRequester(ctx context.Context, userID, eventID uint64) ([]model.Carpool, error) {
    q := `SELECT c.id, c.event_id, c.driver_id, c.seats, c.departure, c.created_at
          FROM carpools c
          JOIN carpool_requests cr ON cr.carpool_id = c.id
          WHERE cr.user_id = ?`
    args := []interface{}{userID}
    if eventID != 0 {
        q += " AND c.event_id = ?"
        args = append(args, eventID)
    }
    q += " ORDER BY c.created_at DESC"
    return r.listCarpools(ctx, q, args...)
}

// Delete removes a carpool if the caller drives it. Requests go with
// it via ON DELETE CASCADE.
func (r *CarpoolRepo) Delete(ctx context.Context, driverID, carpoolID uint64) error {
    cp, err := r.GetByID(ctx, carpoolID)
    if err != nil {
        return err
    }
    if cp.DriverID != driverID {
        return ErrForbidden
    }
    _, err = r.db.ExecContext(ctx, "DELETE FROM carpools WHERE id=?", carpoolID)
    return err
}

// RequestCounts tallies a carpool's requests per status.
type RequestCounts struct {
    Accepted int
    Pending  int
    Rejected int
}

// CountsByStatus returns the request tallies for a carpool.
func (r *CarpoolRepo) CountsByStatus(ctx context.Context, carpoolID uint64) (RequestCounts, error) {
    rows, err := r.db.QueryContext(ctx,
        "SELECT status, COUNT(*) FROM carpool_requests WHERE carpool_id=? GROUP BY status",
        carpoolID)
    if err != nil {
        return RequestCounts{}, err
    }
    defer rows.Close()
    var c RequestCounts
    for rows.Next() {
        var status string
        var n int
        if err := rows.Scan(&status, &n); err != nil {
            return RequestCounts{}, err
        }
        switch status {
        case model.RequestAccepted:
            c.Accepted = n
        case model.RequestPending:
            c.Pending = n
        case model.RequestRejected:
            c.Rejected = n
        }
    }
    return c, rows.Err()
}

// ListRequests returns a carpool's ride requests, oldest first, with
// an optional status filter.
func (r *CarpoolRepo) ListRequests(ctx context.Context, carpoolID uint64, status string) ([]model.CarpoolRequest, error) {
    q := "SELECT " + requestColumns + " FROM carpool_requests WHERE carpool_id=?"
    args := []interface{}{carpoolID}
    if status != "" {
        q += " AND status=?"
        args = append(args, status)
    }
    q += " ORDER BY created_at ASC"
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.CarpoolRequest, 0)
    for rows.Next() {
        var cr model.CarpoolRequest
        if err := rows.Scan(&cr.ID, &cr.CarpoolID, &cr.UserID, &cr.Status, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, cr)
    }
    return out, rows.Err()
}

// DeleteRequest withdraws the caller's own ride request.
// sql.ErrNoRows when the user never requested this carpool.
func (r *CarpoolRepo) DeleteRequest(ctx context.Context, carpoolID, userID uint64) error {
    res, err := r.db.ExecContext(ctx,
        "DELETE FROM carpool_requests WHERE carpool_id=? AND user_id=?", carpoolID, userID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// GetForUpdateTx loads a carpool under a row lock. Every competing
// join or accept for the same carpool serializes behind this lock
// until the surrounding transaction commits.
func (r *CarpoolRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, carpoolID uint64) (model.Carpool, error) {
    var cp model.Carpool
    err := tx.QueryRowContext(ctx,
        "SELECT "+carpoolColumns+" FROM carpools WHERE id=? FOR UPDATE", carpoolID).
        Scan(&cp.ID, &cp.EventID, &cp.DriverID, &cp.Seats, &cp.Departure, &cp.CreatedAt)
    return cp, err
}

// AcceptedCountTx counts accepted riders inside the locking
// transaction. Pending and rejected requests never consume a seat.
func (r *CarpoolRepo) AcceptedCountTx(ctx context.Context, tx *sql.Tx, carpoolID uint64) (int, error) {
    var n int
    err := tx.QueryRowContext(ctx,
        "SELECT COUNT(*) FROM carpool_requests WHERE carpool_id=? AND status=?",
        carpoolID, model.RequestAccepted).Scan(&n)
    return n, err
}

// HasRequestTx reports whether the user already has any request,
// whatever its status, for this carpool.
func (r *CarpoolRepo) HasRequestTx(ctx context.Context, tx *sql.Tx, carpoolID, userID uint64) (bool, error) {
    var one int
    err := tx.QueryRowContext(ctx,
        "SELECT 1 FROM carpool_requests WHERE carpool_id=? AND user_id=? LIMIT 1",
        carpoolID, userID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// CreateRequestTx inserts a ride request inside the locking
// transaction. The unique key on (carpool_id, user_id) backs up the
// HasRequestTx check; violations surface as ErrConflict.
func (r *CarpoolRepo) CreateRequestTx(ctx context.Context, tx *sql.Tx, carpoolID, userID uint64, status string) (uint64, error) {
    res, err := tx.ExecContext(ctx,
        "INSERT INTO carpool_requests (carpool_id, user_id, status) VALUES (?,?,?)",
        carpoolID, userID, status)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return 0, ErrConflict
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetRequestTx loads one request inside the locking transaction.
func (r *CarpoolRepo) GetRequestTx(ctx context.Context, tx *sql.Tx, requestID uint64) (model.CarpoolRequest, error) {
    var cr model.CarpoolRequest
    err := tx.QueryRowContext(ctx,
        "SELECT "+requestColumns+" FROM carpool_requests WHERE id=? LIMIT 1",
        requestID).Scan(&cr.ID, &cr.CarpoolID, &cr.UserID, &cr.Status, &cr.CreatedAt, &cr.UpdatedAt)
    return cr, err
}

// UpdateRequestStatusTx moves a request to a new status inside the
// locking transaction, used by the driver's accept and reject.
func (r *CarpoolRepo) UpdateRequestStatusTx(ctx context.Context, tx *sql.Tx, requestID uint64, status string) error {
    _, err := tx.ExecContext(ctx,
        "UPDATE carpool_requests SET status=? WHERE id=?", status, requestID)
    return err
}

func (r *CarpoolRepo) listCarpools(ctx context.Context, query string, args ...interface{}) ([]model.Carpool, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Carpool, 0)
    for rows.Next() {
        var cp model.Carpool
        if err := rows.Scan(&cp.ID, &cp.EventID, &cp.DriverID, &cp.Seats, &cp.Departure, &cp.CreatedAt); err != nil {
            return nil, err
        }
        out = append(out, cp)
    }
    return out, rows.Err()
}
