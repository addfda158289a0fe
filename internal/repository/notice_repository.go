package repository

import (
    "context"
    "database/sql"

    "github.com/moimlab/moim-server/internal/model"
)

// NoticeRepo provides persistence for event notices.
type NoticeRepo struct{ db *sql.DB }

func NewNoticeRepo(db *sql.DB) *NoticeRepo { return &NoticeRepo{db: db} }

const noticeColumns = "id, event_id, author_id, content, created_at, updated_at"

// Create inserts a notice and writes the stored row back to n.
func (r *NoticeRepo) Create(ctx context.Context, n *model.Notice) error {
    res, err := r.db.ExecContext(ctx,
        "INSERT INTO notices (event_id, author_id, content) VALUES (?,?,?)",
        n.EventID, n.AuthorID, n.Content)
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
    *n = got
    return nil
}

func (r *NoticeRepo) GetByID(ctx context.Context, id uint64) (model.Notice, error) {
    var n model.Notice
    err := r.db.QueryRowContext(ctx,
        "SELECT "+noticeColumns+" FROM notices WHERE id=? LIMIT 1", id).
        Scan(&n.ID, &n.EventID, &n.AuthorID, &n.Content, &n.CreatedAt, &n.UpdatedAt)
    return n, err
}

// ListByEvent returns an event's notices, newest first. limit <= 0
// means no cap.
func (r *NoticeRepo) ListByEvent(ctx context.Context, eventID uint64, limit int) ([]model.Notice, error) {
    q := "SELECT " + noticeColumns + " FROM notices WHERE event_id=? ORDER BY created_at DESC"
    args := []interface{}{eventID}
    if limit > 0 {
        q += " LIMIT ?"
        args = append(args, limit)
    }
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Notice, 0)
    for rows.Next() {
        var n model.Notice
        if err := rows.Scan(&n.ID, &n.EventID, &n.AuthorID, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
            return nil, err
        }
        out = append(out, n)
    }
    return out, rows.Err()
}

// Update rewrites a notice's content. Only the author may edit;
// anyone else gets ErrForbidden.
func (r *NoticeRepo) Update(ctx context.Context, callerID, noticeID uint64, content string) (model.Notice, error) {
    n, err := r.GetByID(ctx, noticeID)
    if err != nil {
        return model.Notice{}, err
    }
    if n.AuthorID != callerID {
        return model.Notice{}, ErrForbidden
    }
    if _, err := r.db.ExecContext(ctx,
        "UPDATE notices SET content=? WHERE id=?", content, noticeID); err != nil {
        return model.Notice{}, err
    }
    return r.GetByID(ctx, noticeID)
}

// Delete removes a notice. The author or the event host may delete;
// anyone else gets ErrForbidden.
func (r *NoticeRepo) Delete(ctx context.Context, callerID, noticeID uint64) error {
    n, err := r.GetByID(ctx, noticeID)
    if err != nil {
        return err
    }
    if n.AuthorID != callerID {
        var hostID uint64
        if err := r.db.QueryRowContext(ctx,
            "SELECT host_id FROM events WHERE id=?", n.EventID).Scan(&hostID); err != nil {
            return err
        }
        if hostID != callerID {
            return ErrForbidden
        }
    }
    _, err = r.db.ExecContext(ctx, "DELETE FROM notices WHERE id=?", noticeID)
    return err
}
