package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/cinemax/internal/model"
)

// TheatreRepo provides read access to the screening rooms.  Theatres are
// fixed at seed time; their grid defines the seat map of every showtime
// they host.
type TheatreRepo struct {
    db *sql.DB
}

// NewTheatreRepo returns a new TheatreRepo bound to the given database.
func NewTheatreRepo(db *sql.DB) *TheatreRepo { return &TheatreRepo{db: db} }

// List returns all theatres ordered by id.
func (r *TheatreRepo) List(ctx context.Context) ([]model.Theatre, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT id, name, seat_rows, seats_per_row FROM theatres ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Theatre{}
    for rows.Next() {
        var t model.Theatre
        if err := rows.Scan(&t.ID, &t.Name, &t.SeatRows, &t.SeatsPerRow); err != nil {
            return nil, err
        }
        out = append(out, t)
    }
    return out, rows.Err()
}

// GetByID returns a theatre or ErrTheatreNotFound.
func (r *TheatreRepo) GetByID(ctx context.Context, id uint64) (*model.Theatre, error) {
    var t model.Theatre
    err := r.db.QueryRowContext(ctx,
        "SELECT id, name, seat_rows, seats_per_row FROM theatres WHERE id = ?", id).
        Scan(&t.ID, &t.Name, &t.SeatRows, &t.SeatsPerRow)
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrTheatreNotFound
    }
    if err != nil {
        return nil, err
    }
    return &t, nil
}
