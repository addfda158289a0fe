// Package settlement implements the fee-splitting and attendance
// bookkeeping for one event. All functions are pure computations over
// member lists already loaded from the database; callers in the handler
// layer fetch the rows and render the results.
package settlement

import (
    "time"

    "github.com/moimlab/moim-server/internal/model"
)

// AttendanceTally partitions an event's members by attendance status.
// attending + notAttending + undecided always equals the number of
// members tallied.
type AttendanceTally struct {
    Attending    int `json:"attending_count"`
    NotAttending int `json:"not_attending_count"`
    Undecided    int `json:"undecided_count"`
}

// Tally counts members per attendance status in a single pass. Input
// order does not matter; an empty list yields all zeros.
func Tally(members []model.EventMember) AttendanceTally {
    var t AttendanceTally
    for _, m := range members {
        switch m.Status {
        case model.Attending:
            t.Attending++
        case model.NotAttending:
            t.NotAttending++
        default:
            t.Undecided++
        }
    }
    return t
}

// PaymentStats reports how many members in a scope have paid the fee.
// Rate is the paid percentage rounded to the nearest whole percent,
// 0 when the scope is empty.
type PaymentStats struct {
    Total  int `json:"total"`
    Paid   int `json:"paid_count"`
    Unpaid int `json:"unpaid_count"`
    Rate   int `json:"payment_rate"`
}

// PaymentStatsOverAll computes paid/unpaid counts over every member
// regardless of attendance status. The event detail view uses this
// scope.
func PaymentStatsOverAll(members []model.EventMember) PaymentStats {
    return paymentStats(members, false)
}

// PaymentStatsOverAttending computes paid/unpaid counts over attending
// members only. The settlement view uses this scope: people who
// declined do not owe the fee.
func PaymentStatsOverAttending(members []model.EventMember) PaymentStats {
    return paymentStats(members, true)
}

func paymentStats(members []model.EventMember, attendingOnly bool) PaymentStats {
    var s PaymentStats
    for _, m := range members {
        if attendingOnly && m.Status != model.Attending {
            continue
        }
        s.Total++
        if m.HasPaid {
            s.Paid++
        }
    }
    s.Unpaid = s.Total - s.Paid
    if s.Total > 0 {
        s.Rate = int(float64(s.Paid)/float64(s.Total)*100 + 0.5)
    }
    return s
}

// PerPerson returns the per-person share of totalFee across
// attendingCount people, rounded up to the next whole KRW so the host
// is never short. Zero attendees yields zero rather than a division
// error.
func PerPerson(totalFee uint32, attendingCount int) uint32 {
    if attendingCount <= 0 {
        return 0
    }
    n := uint32(attendingCount)
    return (totalFee + n - 1) / n
}

// Summary is the settlement breakdown shown on an event's manage page.
// TotalPaid + TotalUnpaid == attending count × PerPerson.
type Summary struct {
    TotalFee    uint32 `json:"total_fee"`
    PerPerson   uint32 `json:"price_per_person"`
    PaidCount   int    `json:"paid_count"`
    UnpaidCount int    `json:"unpaid_count"`
    TotalPaid   uint64 `json:"total_paid"`
    TotalUnpaid uint64 `json:"total_unpaid"`
}

// Summarize builds the settlement summary for an event from its fee and
// its attending members. Payment counts are scoped to the attending
// subset; non-attending members are the caller's responsibility to
// filter out beforehand if the slice contains them.
func Summarize(totalFee uint32, attending []model.EventMember) Summary {
    stats := PaymentStatsOverAttending(attending)
    per := PerPerson(totalFee, stats.Total)
    return Summary{
        TotalFee:    totalFee,
        PerPerson:   per,
        PaidCount:   stats.Paid,
        UnpaidCount: stats.Unpaid,
        TotalPaid:   uint64(stats.Paid) * uint64(per),
        TotalUnpaid: uint64(stats.Unpaid) * uint64(per),
    }
}

// EventRevenue carries the figures needed to compute an event's
// contribution to platform revenue.
type EventRevenue struct {
    Fee            uint32
    AttendingCount int
    CreatedAt      time.Time
}

// Revenue sums fee × attending count across events. Free events and
// events without attendees contribute nothing.
func Revenue(events []EventRevenue) uint64 {
    var total uint64
    for _, e := range events {
        if e.AttendingCount <= 0 {
            continue
        }
        total += uint64(e.Fee) * uint64(e.AttendingCount)
    }
    return total
}

// MonthRevenue sums revenue for events created on or after the first
// day of now's calendar month, in now's location.
func MonthRevenue(events []EventRevenue, now time.Time) uint64 {
    monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
    var total uint64
    for _, e := range events {
        if e.CreatedAt.Before(monthStart) {
            continue
        }
        if e.AttendingCount <= 0 {
            continue
        }
        total += uint64(e.Fee) * uint64(e.AttendingCount)
    }
    return total
}
