package repository

import (
    "context"
    "database/sql"

    "github.com/iliyamo/cinemax/internal/model"
)

// ScheduleRepo reads the weekly showtime schedules of movies.  A row with
// weekday = -1 belongs to the movie's default list.
type ScheduleRepo struct {
    db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// ListForMovie returns every schedule entry of one movie.
func (r *ScheduleRepo) ListForMovie(ctx context.Context, movieID uint64) ([]model.ScheduleEntry, error) {
    return r.query(ctx,
        `SELECT movie_id, weekday, position, show_time FROM movie_schedules
         WHERE movie_id = ? ORDER BY weekday, position`, movieID)
}

// ListAll returns the schedule entries of every movie.
func (r *ScheduleRepo) ListAll(ctx context.Context) ([]model.ScheduleEntry, error) {
    return r.query(ctx,
        `SELECT movie_id, weekday, position, show_time FROM movie_schedules
         ORDER BY movie_id, weekday, position`)
}

// Replace swaps the list of one (movie, weekday) slot.
func (r *ScheduleRepo) Replace(ctx context.Context, movieID uint64, weekday int, times []string) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := replaceScheduleTx(ctx, tx, movieID, weekday, times); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func (r *ScheduleRepo) query(ctx context.Context, q string, args ...any) ([]model.ScheduleEntry, error) {
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.ScheduleEntry
    for rows.Next() {
        var e model.ScheduleEntry
        if err := rows.Scan(&e.MovieID, &e.Weekday, &e.Position, &e.Time); err != nil {
            return nil, err
        }
        out = append(out, e)
    }
    return out, rows.Err()
}

// replaceScheduleTx deletes the (movie, weekday) list and inserts times in
// order within the caller's transaction.
func replaceScheduleTx(ctx context.Context, tx *sql.Tx, movieID uint64, weekday int, times []string) error {
    if _, err := tx.ExecContext(ctx,
        "DELETE FROM movie_schedules WHERE movie_id = ? AND weekday = ?", movieID, weekday); err != nil {
        return err
    }
    if len(times) == 0 {
        return nil
    }
    query := "INSERT INTO movie_schedules (movie_id, weekday, position, show_time) VALUES "
    args := make([]any, 0, len(times)*4)
    for i, t := range times {
        if i > 0 {
            query += ","
        }
        query += "(?, ?, ?, ?)"
        args = append(args, movieID, weekday, i, t)
    }
    _, err := tx.ExecContext(ctx, query, args...)
    return err
}
