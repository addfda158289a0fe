package settlement

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"

    "github.com/moimlab/moim-server/internal/model"
)

func member(status string, paid bool) model.EventMember {
    return model.EventMember{Status: status, HasPaid: paid}
}

func TestPerPerson(t *testing.T) {
    tests := []struct {
        name      string
        fee       uint32
        attending int
        want      uint32
    }{
        {"even split", 30000, 3, 10000},
        {"ceiling on odd split", 10000, 3, 3334},
        {"single attendee", 10000, 1, 10000},
        {"free event", 0, 5, 0},
        {"zero attendees", 10000, 0, 0},
        {"fee below headcount", 2, 3, 1},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            assert.Equal(t, tt.want, PerPerson(tt.fee, tt.attending))
        })
    }
}

// The per-person share times the headcount must always cover the fee.
func TestPerPerson_CeilingProperty(t *testing.T) {
    for fee := uint32(0); fee <= 500; fee += 7 {
        for n := 1; n <= 9; n++ {
            per := PerPerson(fee, n)
            assert.GreaterOrEqual(t, uint64(per)*uint64(n), uint64(fee),
                "fee=%d n=%d", fee, n)
            if per > 0 {
                // One unit less per head would no longer cover the fee.
                assert.Less(t, uint64(per-1)*uint64(n), uint64(fee),
                    "fee=%d n=%d", fee, n)
            }
        }
    }
}

func TestTally(t *testing.T) {
    members := []model.EventMember{
        member(model.Attending, true),
        member(model.Attending, false),
        member(model.NotAttending, false),
        member(model.Undecided, false),
        member(model.Undecided, true),
    }
    got := Tally(members)
    assert.Equal(t, AttendanceTally{Attending: 2, NotAttending: 1, Undecided: 2}, got)
    assert.Equal(t, len(members), got.Attending+got.NotAttending+got.Undecided)
}

func TestTally_Empty(t *testing.T) {
    assert.Equal(t, AttendanceTally{}, Tally(nil))
}

func TestTally_OrderIndependent(t *testing.T) {
    a := []model.EventMember{
        member(model.Attending, false),
        member(model.NotAttending, false),
        member(model.Undecided, false),
    }
    b := []model.EventMember{a[2], a[0], a[1]}
    assert.Equal(t, Tally(a), Tally(b))
}

func TestPaymentStats_Scopes(t *testing.T) {
    members := []model.EventMember{
        member(model.Attending, true),
        member(model.Attending, false),
        member(model.NotAttending, true), // paid but declined
        member(model.Undecided, false),
    }

    all := PaymentStatsOverAll(members)
    assert.Equal(t, PaymentStats{Total: 4, Paid: 2, Unpaid: 2, Rate: 50}, all)
    assert.Equal(t, len(members), all.Paid+all.Unpaid)

    attending := PaymentStatsOverAttending(members)
    assert.Equal(t, PaymentStats{Total: 2, Paid: 1, Unpaid: 1, Rate: 50}, attending)
    assert.Equal(t, Tally(members).Attending, attending.Paid+attending.Unpaid)
}

func TestPaymentStats_EmptyScope(t *testing.T) {
    assert.Equal(t, PaymentStats{}, PaymentStatsOverAttending([]model.EventMember{
        member(model.NotAttending, true),
    }))
}

func TestSummarize(t *testing.T) {
    // fee=10000, 3 attending (2 paid, 1 unpaid)
    attending := []model.EventMember{
        member(model.Attending, true),
        member(model.Attending, true),
        member(model.Attending, false),
    }
    got := Summarize(10000, attending)
    assert.Equal(t, Summary{
        TotalFee:    10000,
        PerPerson:   3334,
        PaidCount:   2,
        UnpaidCount: 1,
        TotalPaid:   6668,
        TotalUnpaid: 3334,
    }, got)
    assert.Equal(t, uint64(3)*uint64(got.PerPerson), got.TotalPaid+got.TotalUnpaid)
}

func TestSummarize_NoAttendees(t *testing.T) {
    got := Summarize(10000, nil)
    assert.Equal(t, uint32(0), got.PerPerson)
    assert.Zero(t, got.TotalPaid)
    assert.Zero(t, got.TotalUnpaid)
}

func TestRevenue(t *testing.T) {
    events := []EventRevenue{
        {Fee: 10000, AttendingCount: 3},
        {Fee: 0, AttendingCount: 5},
        {Fee: 5000, AttendingCount: 0},
    }
    assert.Equal(t, uint64(30000), Revenue(events))
}

func TestMonthRevenue(t *testing.T) {
    now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
    events := []EventRevenue{
        {Fee: 10000, AttendingCount: 2, CreatedAt: time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)},
        {Fee: 20000, AttendingCount: 1, CreatedAt: time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)},
        {Fee: 99999, AttendingCount: 4, CreatedAt: time.Date(2025, time.February, 28, 23, 59, 0, 0, time.UTC)},
    }
    assert.Equal(t, uint64(40000), MonthRevenue(events, now))
    assert.Equal(t, Revenue(events[:2])+uint64(99999)*4, Revenue(events))
}
