package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/cinemax/internal/model"
)

// ShowtimeRepo manages persistence for showtimes.  The available_seats
// column is set to the theatre capacity on insert and afterwards only
// rewritten by the reservation transactions.
type ShowtimeRepo struct {
    db *sql.DB
}

// NewShowtimeRepo constructs a ShowtimeRepo with the given DB handle.
func NewShowtimeRepo(db *sql.DB) *ShowtimeRepo { return &ShowtimeRepo{db: db} }

const showtimeSelect = `SELECT s.id, s.movie_id, m.title, s.show_date, s.show_time, s.theatre_id, t.name,
                               s.available_seats, s.created_at
                        FROM showtimes s
                        JOIN movies m ON m.id = s.movie_id
                        JOIN theatres t ON t.id = s.theatre_id`

func scanShowtime(s rowScanner) (model.Showtime, error) {
    var st model.Showtime
    err := s.Scan(&st.ID, &st.MovieID, &st.MovieTitle, &st.Date, &st.Time, &st.TheatreID, &st.TheatreName,
        &st.AvailableSeats, &st.CreatedAt)
    return st, err
}

// ListByDate returns every showtime of a calendar day ordered by time,
// then theatre.
func (r *ShowtimeRepo) ListByDate(ctx context.Context, day time.Time) ([]model.Showtime, error) {
    rows, err := r.db.QueryContext(ctx,
        showtimeSelect+" WHERE s.show_date = ? ORDER BY s.show_time, s.theatre_id", day.Format("2006-01-02"))
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Showtime{}
    for rows.Next() {
        st, err := scanShowtime(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, st)
    }
    return out, rows.Err()
}

// GetByID retrieves a showtime by id.  It returns ErrShowtimeNotFound if
// there is no matching row.
func (r *ShowtimeRepo) GetByID(ctx context.Context, id uint64) (*model.Showtime, error) {
    st, err := scanShowtime(r.db.QueryRowContext(ctx, showtimeSelect+" WHERE s.id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrShowtimeNotFound
    }
    if err != nil {
        return nil, err
    }
    return &st, nil
}

// Create inserts a showtime whose counter starts at the theatre capacity.
// The capacity is read by the INSERT itself so it can never drift from the
// theatre grid.  It returns ErrTheatreNotFound for an unknown theatre and
// ErrDuplicate when the (date, time, theatre) slot is taken.  On success
// the stored row, including the joined names, is copied back into st.
func (r *ShowtimeRepo) Create(ctx context.Context, st *model.Showtime) error {
    const q = `INSERT INTO showtimes (movie_id, show_date, show_time, theatre_id, available_seats)
               SELECT ?, ?, ?, t.id, t.seat_rows * t.seats_per_row FROM theatres t WHERE t.id = ?`
    res, err := r.db.ExecContext(ctx, q, st.MovieID, st.Date.Format("2006-01-02"), st.Time, st.TheatreID)
    if err != nil {
        if isDuplicate(err) {
            return ErrDuplicate
        }
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrTheatreNotFound
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    created, err := r.GetByID(ctx, uint64(id))
    if err != nil {
        return err
    }
    *st = *created
    return nil
}
