package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Reservation statuses.
const (
    StatusPending = "PENDING"
    StatusPaid    = "PAID"
)

// Reservation records a user's purchase of one or more seats for a
// screening.  When ShowtimeID is set the reservation owns SeatBooking
// rows in the seat ledger and SeatCount always equals their number.
//
// Fields:
//  ID             – primary key identifier.
//  UserID         – user who made the reservation.
//  MovieTitle     – film title as booked.
//  Date           – screening day ("2006-01-02").
//  Time           – screening time ("HH:MM").
//  SeatCount      – number of seats purchased.
//  TotalPrice     – sum of the per-seat prices.
//  ShowtimeID     – optional showtime reference.
//  TheatreID      – optional theatre reference.
//  SeatCategories – price category of every seat, in order.
//  Seats          – ledger rows owned by the reservation.
//  Status         – PENDING until paid, then PAID.
//  PaymentRef     – simulated payment reference, set when paid.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Reservation struct {
    ID             uint64          // reservations.id
    UserID         uint64          // reservations.user_id
    MovieTitle     string          // reservations.movie_title
    Date           string          // reservations.show_date
    Time           string          // reservations.show_time
    SeatCount      int             // reservations.seat_count
    TotalPrice     decimal.Decimal // reservations.total_price
    ShowtimeID     *uint64         // reservations.showtime_id (nullable)
    TheatreID      *uint64         // reservations.theatre_id (nullable)
    SeatCategories []string        // reservations.seat_categories (JSON array)
    Seats          []SeatBooking   // seat_bookings rows
    Status         string          // reservations.status
    PaymentRef     *string         // reservations.payment_ref (nullable)
    CreatedAt      time.Time       // reservations.created_at
    UpdatedAt      time.Time       // reservations.updated_at
}

// SeatMapped reports whether the reservation owns seat ledger rows.
func (r Reservation) SeatMapped() bool { return r.ShowtimeID != nil && len(r.Seats) > 0 }
