// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// services to distinguish between different failure scenarios without
// inspecting driver errors. For example, ErrSeatTaken reports that a
// requested seat is already in the seat ledger, while ErrDuplicate
// signals that a unique key (email, movie title, showtime slot) would
// be violated.
package repository

import (
    "errors"
    "fmt"
    "strings"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/cinemax/internal/model"
)

// Not-found sentinels, one per aggregate.
var (
    ErrMovieNotFound       = errors.New("movie not found")
    ErrTheatreNotFound     = errors.New("theatre not found")
    ErrShowtimeNotFound    = errors.New("showtime not found")
    ErrReservationNotFound = errors.New("reservation not found")
    ErrUserNotFound        = errors.New("user not found")
    ErrSessionNotFound     = errors.New("session not found")
)

// ErrDuplicate is returned when an insert or update violates a unique key.
var ErrDuplicate = errors.New("duplicate entry")

// ErrSeatTaken is returned when at least one requested seat is already
// booked for the showtime.  The concrete error is a *SeatTakenError
// listing the seats.
var ErrSeatTaken = errors.New("seat already booked")

// ErrSeatOutOfRange is returned when a seat lies outside the theatre grid.
var ErrSeatOutOfRange = errors.New("seat outside theatre grid")

// ErrTheatreMismatch is returned when a booking names a theatre other
// than the one hosting the showtime.
var ErrTheatreMismatch = errors.New("showtime is not in that theatre")

// ErrAlreadyPaid is returned when a payment targets a reservation that is
// no longer pending.
var ErrAlreadyPaid = errors.New("reservation already paid")

// SeatTakenError lists the seats that were already booked.
type SeatTakenError struct {
    Seats []model.SeatRef
}

func (e *SeatTakenError) Error() string {
    labels := make([]string, 0, len(e.Seats))
    for _, s := range e.Seats {
        labels = append(labels, s.Label())
    }
    if len(labels) == 0 {
        return ErrSeatTaken.Error()
    }
    return fmt.Sprintf("%s: %s", ErrSeatTaken, strings.Join(labels, ", "))
}

// Is makes errors.Is(err, ErrSeatTaken) match.
func (e *SeatTakenError) Is(target error) bool { return target == ErrSeatTaken }

// isDuplicate reports whether err is a MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        return me.Number == 1062
    }
    return false
}
