// Package carpool holds the admission rule for carpool join requests.
// The rule itself is pure; the repository layer runs it inside a row
// lock so that two simultaneous join attempts cannot both pass.
package carpool

import "errors"

// ErrFull is returned when every seat is taken by an ACCEPTED request.
// Handlers translate this into a "카풀이 만석입니다." response.
var ErrFull = errors.New("carpool full")

// ErrAlreadyRequested is returned when the rider already has a request
// on this carpool, whatever its status. Handlers translate this into
// "이미 신청한 카풀입니다."
var ErrAlreadyRequested = errors.New("already requested")

// Admit decides whether a new join request may be created. Only
// ACCEPTED requests occupy seats; PENDING and REJECTED ones do not.
func Admit(seats uint8, acceptedCount int, alreadyRequested bool) error {
    if alreadyRequested {
        return ErrAlreadyRequested
    }
    if acceptedCount >= int(seats) {
        return ErrFull
    }
    return nil
}

// AvailableSeats reports how many seats remain, never below zero.
func AvailableSeats(seats uint8, acceptedCount int) int {
    remaining := int(seats) - acceptedCount
    if remaining < 0 {
        return 0
    }
    return remaining
}
