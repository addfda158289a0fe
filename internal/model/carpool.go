package model

import "time"

// Carpool request status values. Only ACCEPTED requests occupy a seat.
const (
    RequestPending  = "PENDING"
    RequestAccepted = "ACCEPTED"
    RequestRejected = "REJECTED"
)

// Seat count bounds for a carpool offer.
const (
    MinCarpoolSeats = 1
    MaxCarpoolSeats = 7
)

// Carpool is a driver's seat offer for one event.
//
// Fields:
//  ID        – primary key identifier.
//  EventID   – event the carpool belongs to.
//  DriverID  – user offering the ride.
//  Seats     – passenger capacity (1–7).
//  Departure – free-text departure description.
//  CreatedAt – creation timestamp.
type Carpool struct {
    ID        uint64    // carpools.id
    EventID   uint64    // carpools.event_id
    DriverID  uint64    // carpools.driver_id
    Seats     uint8     // carpools.seats
    Departure string    // carpools.departure
    CreatedAt time.Time // carpools.created_at
}

// CarpoolRequest is a rider's bid for a seat in a carpool. A rider may
// hold at most one request per carpool (unique key on carpool_id,
// user_id).
type CarpoolRequest struct {
    ID        uint64    // carpool_requests.id
    CarpoolID uint64    // carpool_requests.carpool_id
    UserID    uint64    // carpool_requests.user_id
    Status    string    // carpool_requests.status
    CreatedAt time.Time // carpool_requests.created_at
    UpdatedAt time.Time // carpool_requests.updated_at
}
