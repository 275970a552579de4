package model

import (
    "strconv"
    "strings"

    "github.com/shopspring/decimal"
)

// SeatBooking is one row of the seat ledger: a seat claimed for a
// showtime by a reservation.  (ShowtimeID, Row, Number) is unique.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation.
//  TheatreID     – theatre of the showtime.
//  ShowtimeID    – showtime the seat is claimed for.
//  Row           – row letter, A for the first row.
//  Number        – seat number within the row (1-based).
//  Category      – price category of the seat.
//  Price         – unit price charged for the seat.
type SeatBooking struct {
    ID            uint64          // seat_bookings.id
    ReservationID uint64          // seat_bookings.reservation_id
    TheatreID     uint64          // seat_bookings.theatre_id
    ShowtimeID    uint64          // seat_bookings.showtime_id
    Row           string          // seat_bookings.row_letter
    Number        int             // seat_bookings.seat_number
    Category      string          // seat_bookings.category
    Price         decimal.Decimal // seat_bookings.price
}

// Label returns the "A-1" form used by the front end.
func (s SeatBooking) Label() string { return s.Row + "-" + strconv.Itoa(s.Number) }

// SeatRef identifies a seat inside a theatre grid.
type SeatRef struct {
    Row    string
    Number int
}

// Label returns the "A-1" form of the seat.
func (s SeatRef) Label() string { return s.Row + "-" + strconv.Itoa(s.Number) }

// RowLetter converts a zero-based row index to its letter.  Indices
// outside 0..25 yield an empty string.
func RowLetter(i int) string {
    if i < 0 || i >= MaxTheatreRows {
        return ""
    }
    return string(rune('A' + i))
}

// RowIndex converts a row letter back to its zero-based index.
func RowIndex(label string) (int, bool) {
    s := strings.ToUpper(strings.TrimSpace(label))
    if len(s) != 1 || s[0] < 'A' || s[0] > 'Z' {
        return -1, false
    }
    return int(s[0] - 'A'), true
}
