package carpool

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestAdmit(t *testing.T) {
    tests := []struct {
        name             string
        seats            uint8
        accepted         int
        alreadyRequested bool
        want             error
    }{
        {"seat available", 4, 3, false, nil},
        {"exactly full", 4, 4, false, ErrFull},
        {"over capacity", 4, 5, false, ErrFull},
        {"duplicate request", 4, 0, true, ErrAlreadyRequested},
        {"duplicate wins over full", 4, 4, true, ErrAlreadyRequested},
        {"single seat free", 1, 0, false, nil},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            assert.Equal(t, tt.want, Admit(tt.seats, tt.accepted, tt.alreadyRequested))
        })
    }
}

// A PENDING request holds no seat: with seats=1 and one pending rider,
// a second rider is still admitted.
func TestAdmit_PendingDoesNotCount(t *testing.T) {
    acceptedCount := 0 // user A's request is PENDING, not ACCEPTED
    assert.NoError(t, Admit(1, acceptedCount, false))
}

func TestAvailableSeats(t *testing.T) {
    assert.Equal(t, 4, AvailableSeats(4, 0))
    assert.Equal(t, 1, AvailableSeats(4, 3))
    assert.Equal(t, 0, AvailableSeats(4, 4))
    assert.Equal(t, 0, AvailableSeats(4, 6))
}
