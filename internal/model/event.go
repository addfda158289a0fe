package model

import "time"

// Event status values. The host may set any of the three values at any
// time; no transition table is enforced. That mirrors how hosts actually
// run moims (a cancelled venue can push a CONFIRMED event back to
// RECRUITING) and is a deliberate choice, not an oversight.
const (
    EventRecruiting = "RECRUITING"
    EventConfirmed  = "CONFIRMED"
    EventCompleted  = "COMPLETED"
)

// Event represents a moim (meetup) as stored in the `events` table.
// Every event carries a unique invite code that grants guests access
// to the join page without authentication.
//
// Fields:
//  ID           – primary key identifier.
//  HostID       – user who created and manages the event.
//  Title        – event title.
//  Description  – optional free-text description.
//  Date         – scheduled date and time of the event.
//  Location     – where the event takes place.
//  Fee          – participation fee in whole KRW (0 = free).
//  MaxAttendees – optional cap on attending members.
//  Status       – RECRUITING, CONFIRMED or COMPLETED.
//  InviteCode   – short URL-safe token for the public join page.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Event struct {
    ID           uint64    // events.id
    HostID       uint64    // events.host_id
    Title        string    // events.title
    Description  *string   // events.description (nullable)
    Date         time.Time // events.date
    Location     string    // events.location
    Fee          uint32    // events.fee
    MaxAttendees *uint32   // events.max_attendees (nullable)
    Status       string    // events.status
    InviteCode   string    // events.invite_code
    CreatedAt    time.Time // events.created_at
    UpdatedAt    time.Time // events.updated_at
}
