package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/moimlab/moim-server/internal/model"
)

// MemberRepo provides persistence for event members (RSVPs). One row
// exists per (event, user) or (event, guest name) pair; the unique
// indexes on those pairs are the single authority for duplicates.
type MemberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) *MemberRepo { return &MemberRepo{db: db} }

const memberColumns = "id, event_id, user_id, guest_name, status, has_paid, created_at, updated_at"

// Create inserts a member row. Duplicate joins surface as ErrConflict.
// The generated ID and timestamps are written back to m.
func (r *MemberRepo) Create(ctx context.Context, m *model.EventMember) error {
    const q = `INSERT INTO event_members (event_id, user_id, guest_name, status, has_paid)
               VALUES (?,?,?,?,?)`
    res, err := r.db.ExecContext(ctx, q, m.EventID, m.UserID, m.GuestName, m.Status, m.HasPaid)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    got, err := r.GetByID(ctx, m.EventID, uint64(id))
    if err != nil {
        return err
    }
    *m = got
    return nil
}

// GetByID fetches one member scoped to its event. sql.ErrNoRows when
// the member does not exist or belongs to a different event.
func (r *MemberRepo) GetByID(ctx context.Context, eventID, memberID uint64) (model.EventMember, error) {
    return r.scanOne(ctx,
        "SELECT "+memberColumns+" FROM event_members WHERE id=? AND event_id=? LIMIT 1",
        memberID, eventID)
}

// ListByEvent returns an event's members, newest first. A non-empty
// status narrows the result; paidFilter of nil means both paid and
// unpaid.
func (r *MemberRepo) ListByEvent(ctx context.Context, eventID uint64, status string, paidFilter *bool) ([]model.EventMember, error) {
    q := "SELECT " + memberColumns + " FROM event_members WHERE event_id=?"
    args := []interface{}{eventID}
    if status != "" {
        q += " AND status=?"
        args = append(args, status)
    }
    if paidFilter != nil {
        q += " AND has_paid=?"
        args = append(args, *paidFilter)
    }
    q += " ORDER BY created_at DESC"

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.EventMember, 0)
    for rows.Next() {
        m, err := scanMember(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// UpdateStatus sets a member's attendance status and returns the
// updated row.
func (r *MemberRepo) UpdateStatus(ctx context.Context, eventID, memberID uint64, status string) (model.EventMember, error) {
    res, err := r.db.ExecContext(ctx,
        "UPDATE event_members SET status=? WHERE id=? AND event_id=?",
        status, memberID, eventID)
    if err != nil {
        return model.EventMember{}, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        // Distinguish "unknown member" from "status unchanged".
        if _, err := r.GetByID(ctx, eventID, memberID); err != nil {
            return model.EventMember{}, err
        }
    }
    return r.GetByID(ctx, eventID, memberID)
}

// SetPaid flips a member's payment flag and returns the updated row.
func (r *MemberRepo) SetPaid(ctx context.Context, eventID, memberID uint64, paid bool) (model.EventMember, error) {
    res, err := r.db.ExecContext(ctx,
        "UPDATE event_members SET has_paid=? WHERE id=? AND event_id=?",
        paid, memberID, eventID)
    if err != nil {
        return model.EventMember{}, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        if _, err := r.GetByID(ctx, eventID, memberID); err != nil {
            return model.EventMember{}, err
        }
    }
    return r.GetByID(ctx, eventID, memberID)
}

// PaidUpdate pairs a member with the payment flag to write.
type PaidUpdate struct {
    MemberID uint64 `json:"member_id"`
    HasPaid  bool   `json:"has_paid"`
}

// SetPaidBulk applies several payment-flag updates atomically: either
// every member exists and is updated, or nothing is.
func (r *MemberRepo) SetPaidBulk(ctx context.Context, eventID uint64, updates []PaidUpdate) ([]model.EventMember, error) {
    if len(updates) == 0 {
        return []model.EventMember{}, nil
    }
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    for _, u := range updates {
        res, err := tx.ExecContext(ctx,
            "UPDATE event_members SET has_paid=? WHERE id=? AND event_id=?",
            u.HasPaid, u.MemberID, eventID)
        if err != nil {
            return nil, err
        }
        if n, _ := res.RowsAffected(); n == 0 {
            var exists int
            if err := tx.QueryRowContext(ctx,
                "SELECT 1 FROM event_members WHERE id=? AND event_id=?",
                u.MemberID, eventID).Scan(&exists); err != nil {
                return nil, err
            }
        }
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true

    ids := make([]string, len(updates))
    args := make([]interface{}, 0, len(updates)+1)
    args = append(args, eventID)
    for i, u := range updates {
        ids[i] = "?"
        args = append(args, u.MemberID)
    }
    rows, err := r.db.QueryContext(ctx,
        "SELECT "+memberColumns+" FROM event_members WHERE event_id=? AND id IN ("+strings.Join(ids, ",")+")",
        args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.EventMember, 0, len(updates))
    for rows.Next() {
        m, err := scanMember(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// Delete removes a member from an event. sql.ErrNoRows when nothing
// matched.
func (r *MemberRepo) Delete(ctx context.Context, eventID, memberID uint64) error {
    res, err := r.db.ExecContext(ctx,
        "DELETE FROM event_members WHERE id=? AND event_id=?", memberID, eventID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return sql.ErrNoRows
    }
    return nil
}

// IsMember reports whether a registered user has a membership row in
// the event.
func (r *MemberRepo) IsMember(ctx context.Context, eventID, userID uint64) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx,
        "SELECT 1 FROM event_members WHERE event_id=? AND user_id=? LIMIT 1",
        eventID, userID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// ActiveUserCount counts distinct registered users with membership
// activity since the given time, for the admin overview.
func (r *MemberRepo) ActiveUserCount(ctx context.Context, since time.Time) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx,
        "SELECT COUNT(DISTINCT user_id) FROM event_members WHERE user_id IS NOT NULL AND created_at >= ?",
        since).Scan(&n)
    return n, err
}

func (r *MemberRepo) scanOne(ctx context.Context, query string, args ...interface{}) (model.EventMember, error) {
    row := r.db.QueryRowContext(ctx, query, args...)
    var (
        m         model.EventMember
        userID    sql.NullInt64
        guestName sql.NullString
    )
    err := row.Scan(&m.ID, &m.EventID, &userID, &guestName, &m.Status, &m.HasPaid, &m.CreatedAt, &m.UpdatedAt)
    if err != nil {
        return model.EventMember{}, err
    }
    applyMemberNullables(&m, userID, guestName)
    return m, nil
}

func scanMember(rows *sql.Rows) (model.EventMember, error) {
    var (
        m         model.EventMember
        userID    sql.NullInt64
        guestName sql.NullString
    )
    err := rows.Scan(&m.ID, &m.EventID, &userID, &guestName, &m.Status, &m.HasPaid, &m.CreatedAt, &m.UpdatedAt)
    if err != nil {
        return model.EventMember{}, err
    }
    applyMemberNullables(&m, userID, guestName)
    return m, nil
}

func applyMemberNullables(m *model.EventMember, userID sql.NullInt64, guestName sql.NullString) {
    if userID.Valid {
        u := uint64(userID.Int64)
        m.UserID = &u
    }
    if guestName.Valid {
        g := guestName.String
        m.GuestName = &g
    }
}
