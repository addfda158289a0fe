// Package queue defines message payloads exchanged over the message broker.
package queue

// RSVPConfirmedEvent is published when a member's attendance flips to
// ATTENDING. It carries enough information for downstream consumers to
// log or notify the host without querying the primary database.
type RSVPConfirmedEvent struct {
    MemberID    uint64  `json:"member_id"`
    EventID     uint64  `json:"event_id"`
    EventTitle  string  `json:"event_title"`
    HostID      uint64  `json:"host_id"`
    UserID      *uint64 `json:"user_id,omitempty"`
    GuestName   *string `json:"guest_name,omitempty"`
    Fee         uint32  `json:"fee"`
    ConfirmedAt string  `json:"confirmed_at"`
}
