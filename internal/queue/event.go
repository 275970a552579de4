// Package queue defines message payloads exchanged over the message broker.
package queue

import (
    "fmt"
    "strings"
    "time"

    "github.com/iliyamo/cinemax/internal/model"
)

// BookingQueueName is the durable queue that carries booking lifecycle events.
const BookingQueueName = "booking.events"

// Booking lifecycle event kinds.
const (
    KindCreated   = "booking.created"
    KindUpdated   = "booking.updated"
    KindCancelled = "booking.cancelled"
    KindPaid      = "booking.paid"
)

// BookingEvent is published after a reservation transaction commits.  It
// contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type BookingEvent struct {
    Kind          string   `json:"kind"`
    ReservationID uint64   `json:"reservation_id"`
    UserID        uint64   `json:"user_id"`
    ShowtimeID    *uint64  `json:"showtime_id,omitempty"`
    TheatreID     *uint64  `json:"theatre_id,omitempty"`
    MovieTitle    string   `json:"movie_title"`
    Date          string   `json:"date"`
    Time          string   `json:"time"`
    SeatCount     int      `json:"seat_count"`
    Seats         []string `json:"seats"`
    Categories    []string `json:"categories"`
    Total         string   `json:"total"`
    Status        string   `json:"status"`
    PaymentRef    string   `json:"payment_ref,omitempty"`
    OccurredAt    string   `json:"occurred_at"`
}

// NewBookingEvent snapshots a reservation into an event of the given kind.
func NewBookingEvent(kind string, r model.Reservation, at time.Time) BookingEvent {
    ev := BookingEvent{
        Kind:          kind,
        ReservationID: r.ID,
        UserID:        r.UserID,
        ShowtimeID:    r.ShowtimeID,
        TheatreID:     r.TheatreID,
        MovieTitle:    r.MovieTitle,
        Date:          r.Date,
        Time:          r.Time,
        SeatCount:     r.SeatCount,
        Seats:         make([]string, 0, len(r.Seats)),
        Categories:    r.SeatCategories,
        Total:         r.TotalPrice.StringFixed(2),
        Status:        r.Status,
        OccurredAt:    at.UTC().Format(time.RFC3339),
    }
    for _, s := range r.Seats {
        ev.Seats = append(ev.Seats, s.Label())
    }
    if r.PaymentRef != nil {
        ev.PaymentRef = *r.PaymentRef
    }
    return ev
}

// LogLine renders the event as one human-friendly audit log line.
func (ev BookingEvent) LogLine() string {
    seats := "[]"
    if len(ev.Seats) > 0 {
        seats = "[" + strings.Join(ev.Seats, ",") + "]"
    }
    line := fmt.Sprintf("[%s] %s | reservation_id=%d | user_id=%d | movie=%q | date=%s %s | seats=%d %s | total=%s | status=%s",
        ev.OccurredAt, ev.Kind, ev.ReservationID, ev.UserID, ev.MovieTitle, ev.Date, ev.Time,
        ev.SeatCount, seats, ev.Total, ev.Status)
    if ev.PaymentRef != "" {
        line += " | payment_ref=" + ev.PaymentRef
    }
    return line + "\n"
}
