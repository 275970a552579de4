package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/cinemax/internal/model"
)

// SeatRepo reads the seat ledger, the set of (showtime, row, seat) triples
// claimed by reservations.  Writes to the ledger only happen inside the
// ReservationRepo transactions.
type SeatRepo struct {
    db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// BookedSeats returns the occupied seats of a showtime.  The read takes no
// locks, so the result is advisory: a concurrent booking may claim a seat
// reported free here.
func (r *SeatRepo) BookedSeats(ctx context.Context, showtimeID uint64) ([]model.SeatRef, error) {
    rows, err := r.db.QueryContext(ctx,
        `SELECT row_letter, seat_number FROM seat_bookings
         WHERE showtime_id = ? ORDER BY row_letter, seat_number`, showtimeID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.SeatRef
    for rows.Next() {
        var s model.SeatRef
        if err := rows.Scan(&s.Row, &s.Number); err != nil {
            return nil, err
        }
        out = append(out, s)
    }
    return out, rows.Err()
}

// ListByReservations loads the ledger rows of several reservations,
// grouped by reservation id.
func (r *SeatRepo) ListByReservations(ctx context.Context, ids []uint64) (map[uint64][]model.SeatBooking, error) {
    return listSeatsByReservations(ctx, r.db, ids)
}

type queryer interface {
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listSeatsByReservations(ctx context.Context, q queryer, ids []uint64) (map[uint64][]model.SeatBooking, error) {
    out := make(map[uint64][]model.SeatBooking, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    args := make([]any, len(ids))
    for i, id := range ids {
        args[i] = id
    }
    query := `SELECT id, reservation_id, theatre_id, showtime_id, row_letter, seat_number, category, price
              FROM seat_bookings WHERE reservation_id IN (` + placeholders(len(ids)) + `)
              ORDER BY reservation_id, id`
    rows, err := q.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var s model.SeatBooking
        if err := rows.Scan(&s.ID, &s.ReservationID, &s.TheatreID, &s.ShowtimeID, &s.Row, &s.Number,
            &s.Category, &s.Price); err != nil {
            return nil, err
        }
        out[s.ReservationID] = append(out[s.ReservationID], s)
    }
    return out, rows.Err()
}

func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.Repeat("?,", n-1) + "?"
}
