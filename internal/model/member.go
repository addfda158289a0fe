package model

import "time"

// Attendance status values for event members. Like the event status,
// a member may move between any of the three values freely.
const (
    Attending    = "ATTENDING"
    NotAttending = "NOT_ATTENDING"
    Undecided    = "PENDING"
)

// EventMember links a person to an event together with their declared
// attendance and payment state. A member is either a registered user
// (UserID set) or a guest who joined through an invite link (GuestName
// set); at least one of the two is always present. Uniqueness per
// (event, user) and (event, guest name) is enforced by the database.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event the member belongs to.
//  UserID    – registered user reference (null for guests).
//  GuestName – free-text guest name (null for registered users).
//  Status    – ATTENDING, NOT_ATTENDING or PENDING.
//  HasPaid   – whether the participation fee has been paid.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type EventMember struct {
    ID        uint64    // event_members.id
    EventID   uint64    // event_members.event_id
    UserID    *uint64   // event_members.user_id (nullable)
    GuestName *string   // event_members.guest_name (nullable)
    Status    string    // event_members.status
    HasPaid   bool      // event_members.has_paid
    CreatedAt time.Time // event_members.created_at
    UpdatedAt time.Time // event_members.updated_at
}
