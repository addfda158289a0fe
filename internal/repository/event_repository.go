package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/moimlab/moim-server/internal/model"
    "github.com/moimlab/moim-server/internal/settlement"
)

// EventRepo provides persistence for events (moims). Ownership checks
// for host-only mutations live here so that handlers can rely on
// ErrForbidden rather than re-querying the host themselves.
type EventRepo struct{ db *sql.DB }

func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, host_id, title, description, date, location, fee,
       max_attendees, status, invite_code, created_at, updated_at`

// Create inserts a new event and populates the generated ID and
// timestamps on the provided record.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
    const q = `INSERT INTO events (host_id, title, description, date, location, fee, max_attendees, status, invite_code)
               VALUES (?,?,?,?,?,?,?,?,?)`
    res, err := r.db.ExecContext(ctx, q,
        ev.HostID, ev.Title, ev.Description, ev.Date, ev.Location, ev.Fee,
        ev.MaxAttendees, ev.Status, ev.InviteCode)
    if err != nil {
        // 1062 can only come from the unique invite_code index here.
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrConflict
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    ev.ID = uint64(id)
    got, err := r.GetByID(ctx, ev.ID)
    if err != nil {
        return err
    }
    *ev = got
    return nil
}

// GetByID fetches a single event. Returns sql.ErrNoRows when absent.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
    return r.scanOne(ctx, "SELECT "+eventColumns+" FROM events WHERE id=? LIMIT 1", id)
}

// GetByInviteCode fetches an event by its public invite code.
func (r *EventRepo) GetByInviteCode(ctx context.Context, code string) (model.Event, error) {
    return r.scanOne(ctx, "SELECT "+eventColumns+" FROM events WHERE invite_code=? LIMIT 1", code)
}

// HostID returns the host of an event, for authorization checks.
func (r *EventRepo) HostID(ctx context.Context, eventID uint64) (uint64, error) {
    var hostID uint64
    err := r.db.QueryRowContext(ctx,
        "SELECT host_id FROM events WHERE id=? LIMIT 1", eventID).Scan(&hostID)
    return hostID, err
}

// Update rewrites the editable fields of an event. The caller must be
// the host; otherwise ErrForbidden. Returns sql.ErrNoRows for unknown
// events.
func (r *EventRepo) Update(ctx context.Context, callerID uint64, ev *model.Event) error {
    if err := r.requireHost(ctx, ev.ID, callerID); err != nil {
        return err
    }
    const q = `UPDATE events
               SET title=?, description=?, date=?, location=?, fee=?, max_attendees=?
               WHERE id=?`
    if _, err := r.db.ExecContext(ctx, q,
        ev.Title, ev.Description, ev.Date, ev.Location, ev.Fee, ev.MaxAttendees, ev.ID); err != nil {
        return err
    }
    got, err := r.GetByID(ctx, ev.ID)
    if err != nil {
        return err
    }
    *ev = got
    return nil
}

// UpdateStatus sets the lifecycle status. Any of the three values may
// be written at any time; there is no transition table.
func (r *EventRepo) UpdateStatus(ctx context.Context, callerID, eventID uint64, status string) (model.Event, error) {
    if err := r.requireHost(ctx, eventID, callerID); err != nil {
        return model.Event{}, err
    }
    if _, err := r.db.ExecContext(ctx,
        "UPDATE events SET status=? WHERE id=?", status, eventID); err != nil {
        return model.Event{}, err
    }
    return r.GetByID(ctx, eventID)
}

// Delete removes an event; members, carpools and notices go with it via
// ON DELETE CASCADE. Host only.
func (r *EventRepo) Delete(ctx context.Context, callerID, eventID uint64) error {
    if err := r.requireHost(ctx, eventID, callerID); err != nil {
        return err
    }
    _, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id=?", eventID)
    return err
}

// ListByHost returns events hosted by a user, newest first.
func (r *EventRepo) ListByHost(ctx context.Context, hostID uint64) ([]model.Event, error) {
    return r.scanMany(ctx,
        "SELECT "+eventColumns+" FROM events WHERE host_id=? ORDER BY created_at DESC", hostID)
}

// ListParticipating returns events in which the user appears as a
// member, newest first.
func (r *EventRepo) ListParticipating(ctx context.Context, userID uint64) ([]model.Event, error) {
    const q = `SELECT ` + eventColumns + `
               FROM events e
               JOIN event_members m ON m.event_id = e.id
               WHERE m.user_id = ?
               ORDER BY e.created_at DESC`
    return r.scanMany(ctx, q, userID)
}

// CountAll returns the total number of events, for the admin overview.
func (r *EventRepo) CountAll(ctx context.Context) (int, error) {
    var n int
    err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM events").Scan(&n)
    return n, err
}

// RevenueRows returns every event's fee, creation time and attending
// head-count in one aggregated query, feeding the admin revenue
// figures.
func (r *EventRepo) RevenueRows(ctx context.Context) ([]settlement.EventRevenue, error) {
    const q = `SELECT e.fee, e.created_at, COUNT(m.id)
               FROM events e
               LEFT JOIN event_members m ON m.event_id = e.id AND m.status = 'ATTENDING'
               GROUP BY e.id, e.fee, e.created_at`
    rows, err := r.db.QueryContext(ctx, q)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]settlement.EventRevenue, 0)
    for rows.Next() {
        var er settlement.EventRevenue
        if err := rows.Scan(&er.Fee, &er.CreatedAt, &er.AttendingCount); err != nil {
            return nil, err
        }
        out = append(out, er)
    }
    return out, rows.Err()
}

// AdminEventRow is one line of the admin event listing: the event plus
// its host name, attending head-count and revenue contribution.
type AdminEventRow struct {
    model.Event
    HostName      string `json:"host_name"`
    AttendeeCount int    `json:"attendee_count"`
    Revenue       uint64 `json:"revenue"`
}

// AdminListOptions control filtering, sorting and paging of AdminList.
type AdminListOptions struct {
    Status string // empty = all
    SortBy string // "date", "revenue" or "attendees"
    Desc   bool
    Limit  int
    Offset int
}

// AdminList returns events joined with host names and attendance
// figures for the admin console.
func (r *EventRepo) AdminList(ctx context.Context, opts AdminListOptions) ([]AdminEventRow, error) {
    q := `SELECT e.id, e.host_id, e.title, e.description, e.date, e.location, e.fee,
                 e.max_attendees, e.status, e.invite_code, e.created_at, e.updated_at,
                 u.name,
                 COUNT(m.id) AS attendee_count,
                 e.fee * COUNT(m.id) AS revenue
          FROM events e
          JOIN users u ON u.id = e.host_id
          LEFT JOIN event_members m ON m.event_id = e.id AND m.status = 'ATTENDING'`
    args := []interface{}{}
    if opts.Status != "" {
        q += " WHERE e.status = ?"
        args = append(args, opts.Status)
    }
    q += " GROUP BY e.id, u.name"
    switch opts.SortBy {
    case "revenue":
        q += " ORDER BY revenue"
    case "attendees":
        q += " ORDER BY attendee_count"
    default:
        q += " ORDER BY e.date"
    }
    if opts.Desc {
        q += " DESC"
    } else {
        q += " ASC"
    }
    q += " LIMIT ? OFFSET ?"
    args = append(args, opts.Limit, opts.Offset)

    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]AdminEventRow, 0)
    for rows.Next() {
        var (
            row          AdminEventRow
            description  sql.NullString
            maxAttendees sql.NullInt64
        )
        if err := rows.Scan(
            &row.ID, &row.HostID, &row.Title, &description, &row.Date, &row.Location,
            &row.Fee, &maxAttendees, &row.Status, &row.InviteCode,
            &row.CreatedAt, &row.UpdatedAt,
            &row.HostName, &row.AttendeeCount, &row.Revenue,
        ); err != nil {
            return nil, err
        }
        applyNullables(&row.Event, description, maxAttendees)
        out = append(out, row)
    }
    return out, rows.Err()
}

func (r *EventRepo) requireHost(ctx context.Context, eventID, callerID uint64) error {
    hostID, err := r.HostID(ctx, eventID)
    if err != nil {
        return err
    }
    if hostID != callerID {
        return ErrForbidden
    }
    return nil
}

func (r *EventRepo) scanOne(ctx context.Context, query string, args ...interface{}) (model.Event, error) {
    var (
        ev           model.Event
        description  sql.NullString
        maxAttendees sql.NullInt64
    )
    err := r.db.QueryRowContext(ctx, query, args...).Scan(
        &ev.ID, &ev.HostID, &ev.Title, &description, &ev.Date, &ev.Location,
        &ev.Fee, &maxAttendees, &ev.Status, &ev.InviteCode, &ev.CreatedAt, &ev.UpdatedAt)
    if err != nil {
        return model.Event{}, err
    }
    applyNullables(&ev, description, maxAttendees)
    return ev, nil
}

func (r *EventRepo) scanMany(ctx context.Context, query string, args ...interface{}) ([]model.Event, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Event, 0)
    for rows.Next() {
        var (
            ev           model.Event
            description  sql.NullString
            maxAttendees sql.NullInt64
        )
        if err := rows.Scan(
            &ev.ID, &ev.HostID, &ev.Title, &description, &ev.Date, &ev.Location,
            &ev.Fee, &maxAttendees, &ev.Status, &ev.InviteCode, &ev.CreatedAt, &ev.UpdatedAt,
        ); err != nil {
            return nil, err
        }
        applyNullables(&ev, description, maxAttendees)
        out = append(out, ev)
    }
    return out, rows.Err()
}

func applyNullables(ev *model.Event, description sql.NullString, maxAttendees sql.NullInt64) {
    if description.Valid {
        d := description.String
        ev.Description = &d
    }
    if maxAttendees.Valid {
        m := uint32(maxAttendees.Int64)
        ev.MaxAttendees = &m
    }
}
