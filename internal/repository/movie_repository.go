// Package repository contains data access logic for the catalog.  This
// file defines the movie repository.  Movies own their weekly schedule
// (movie_schedules); creating or updating a movie together with its
// default showtime list happens in one transaction.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "fmt"

    "github.com/goccy/go-json"

    "github.com/iliyamo/cinemax/internal/model"
)

// MovieRepo manages persistence for movies.
type MovieRepo struct {
    db *sql.DB
}

// NewMovieRepo constructs a MovieRepo with the given DB handle.
func NewMovieRepo(db *sql.DB) *MovieRepo { return &MovieRepo{db: db} }

const movieColumns = `id, title, director, cast_members, description, duration_min, rating,
                      poster_url, trailer_url, color, created_at, updated_at`

type rowScanner interface {
    Scan(dest ...any) error
}

func scanMovie(s rowScanner) (model.Movie, error) {
    var (
        m       model.Movie
        cast    []byte
        trailer sql.NullString
        color   sql.NullString
    )
    err := s.Scan(&m.ID, &m.Title, &m.Director, &cast, &m.Description, &m.Duration, &m.Rating,
        &m.PosterURL, &trailer, &color, &m.CreatedAt, &m.UpdatedAt)
    if err != nil {
        return m, err
    }
    m.Cast = []string{}
    if len(cast) > 0 {
        if err := json.Unmarshal(cast, &m.Cast); err != nil {
            return m, fmt.Errorf("decode cast of movie %d: %w", m.ID, err)
        }
    }
    if trailer.Valid {
        v := trailer.String
        m.TrailerURL = &v
    }
    if color.Valid {
        v := color.String
        m.Color = &v
    }
    return m, nil
}

func encodeCast(cast []string) ([]byte, error) {
    if cast == nil {
        cast = []string{}
    }
    return json.Marshal(cast)
}

// List returns every movie ordered by id.
func (r *MovieRepo) List(ctx context.Context) ([]model.Movie, error) {
    rows, err := r.db.QueryContext(ctx, "SELECT "+movieColumns+" FROM movies ORDER BY id")
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := []model.Movie{}
    for rows.Next() {
        m, err := scanMovie(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, m)
    }
    return out, rows.Err()
}

// GetByID retrieves a movie by id.  It returns ErrMovieNotFound if there
// is no matching row.
func (r *MovieRepo) GetByID(ctx context.Context, id uint64) (*model.Movie, error) {
    m, err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrMovieNotFound
    }
    if err != nil {
        return nil, err
    }
    return &m, nil
}

// GetByTitle retrieves a movie by its exact title.
func (r *MovieRepo) GetByTitle(ctx context.Context, title string) (*model.Movie, error) {
    m, err := scanMovie(r.db.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE title = ?", title))
    if errors.Is(err, sql.ErrNoRows) {
        return nil, ErrMovieNotFound
    }
    if err != nil {
        return nil, err
    }
    return &m, nil
}

// Create inserts a movie and its default showtime list.  On success the
// generated ID and timestamps are populated on m.  A title collision
// yields ErrDuplicate.
func (r *MovieRepo) Create(ctx context.Context, m *model.Movie, defaultTimes []string) error {
    cast, err := encodeCast(m.Cast)
    if err != nil {
        return err
    }
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

    const q = `INSERT INTO movies (title, director, cast_members, description, duration_min, rating, poster_url, trailer_url, color)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := tx.ExecContext(ctx, q, m.Title, m.Director, cast, m.Description, m.Duration, m.Rating,
        m.PosterURL, m.TrailerURL, m.Color)
    if err != nil {
        if isDuplicate(err) {
            return ErrDuplicate
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    if err := replaceScheduleTx(ctx, tx, uint64(id), model.DefaultWeekday, defaultTimes); err != nil {
        return err
    }
    created, err := scanMovie(tx.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", id))
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    *m = created
    return nil
}

// Update overwrites the mutable fields of a movie.  When defaultTimes is
// non-nil the default showtime list is replaced as well.  It returns
// ErrMovieNotFound for an unknown id and ErrDuplicate when the new title
// belongs to another movie.
func (r *MovieRepo) Update(ctx context.Context, m *model.Movie, defaultTimes []string) error {
    cast, err := encodeCast(m.Cast)
    if err != nil {
        return err
    }
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

    var exists int
    if err := tx.QueryRowContext(ctx, "SELECT 1 FROM movies WHERE id = ? FOR UPDATE", m.ID).Scan(&exists); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return ErrMovieNotFound
        }
        return err
    }
    const q = `UPDATE movies SET title = ?, director = ?, cast_members = ?, description = ?, duration_min = ?,
                      rating = ?, poster_url = ?, trailer_url = ?, color = ?
               WHERE id = ?`
    if _, err := tx.ExecContext(ctx, q, m.Title, m.Director, cast, m.Description, m.Duration, m.Rating,
        m.PosterURL, m.TrailerURL, m.Color, m.ID); err != nil {
        if isDuplicate(err) {
            return ErrDuplicate
        }
        return err
    }
    if defaultTimes != nil {
        if err := replaceScheduleTx(ctx, tx, m.ID, model.DefaultWeekday, defaultTimes); err != nil {
            return err
        }
    }
    updated, err := scanMovie(tx.QueryRowContext(ctx, "SELECT "+movieColumns+" FROM movies WHERE id = ?", m.ID))
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    *m = updated
    return nil
}
