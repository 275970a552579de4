package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/cinemax/internal/config"
	"github.com/iliyamo/cinemax/internal/model"
	"github.com/iliyamo/cinemax/internal/utils"
)

// Seed inserts the demo theatres, movies, schedules, showtimes and
// accounts.  Rows that already exist are left untouched, so Seed can run on
// every start; showtimes are generated for cfg.Days days from cfg.From.
func Seed(ctx context.Context, db *sql.DB, cfg config.SeedConfig, bcryptCost int, log *zap.Logger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	theatreIDs, capacities, err := seedTheatresTx(ctx, tx)
	if err != nil {
		return err
	}
	movieIDs, err := seedMoviesTx(ctx, tx)
	if err != nil {
		return err
	}
	created, err := seedShowtimesTx(ctx, tx, cfg, movieIDs, theatreIDs, capacities)
	if err != nil {
		return err
	}
	if err := seedUsersTx(ctx, tx, cfg, bcryptCost); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	log.Info("seed complete",
		zap.Int("theatres", len(theatreIDs)),
		zap.Int("movies", len(movieIDs)),
		zap.Int64("new_showtimes", created),
		zap.String("from", cfg.From.Format("2006-01-02")),
		zap.Int("days", cfg.Days))
	return nil
}

func seedTheatresTx(ctx context.Context, tx *sql.Tx) ([]uint64, []int, error) {
	ids := make([]uint64, 0, len(seedTheatres))
	caps := make([]int, 0, len(seedTheatres))
	for _, t := range seedTheatres {
		if _, err := tx.ExecContext(ctx,
			"INSERT IGNORE INTO theatres (name, seat_rows, seats_per_row) VALUES (?,?,?)",
			t.Name, t.SeatRows, t.SeatsPerRow); err != nil {
			return nil, nil, fmt.Errorf("seed theatre %q: %w", t.Name, err)
		}
		var (
			id         uint64
			rows, cols int
		)
		if err := tx.QueryRowContext(ctx,
			"SELECT id, seat_rows, seats_per_row FROM theatres WHERE name=?", t.Name).
			Scan(&id, &rows, &cols); err != nil {
			return nil, nil, fmt.Errorf("load theatre %q: %w", t.Name, err)
		}
		ids = append(ids, id)
		caps = append(caps, rows*cols)
	}
	return ids, caps, nil
}

func seedMoviesTx(ctx context.Context, tx *sql.Tx) ([]uint64, error) {
	ids := make([]uint64, 0, len(seedMovies))
	for i, m := range seedMovies {
		if _, err := tx.ExecContext(ctx,
			`INSERT IGNORE INTO movies (title, director, cast_members, description, duration_min, rating, poster_url, color)
			 VALUES (?, '', JSON_ARRAY(), ?, ?, ?, ?, ?)`,
			m.Title, m.Description, m.Duration, m.Rating, posterURL(i), m.Color); err != nil {
			return nil, fmt.Errorf("seed movie %q: %w", m.Title, err)
		}
		var id uint64
		if err := tx.QueryRowContext(ctx, "SELECT id FROM movies WHERE title=?", m.Title).Scan(&id); err != nil {
			return nil, fmt.Errorf("load movie %q: %w", m.Title, err)
		}
		for _, e := range m.scheduleEntries(id) {
			if _, err := tx.ExecContext(ctx,
				"INSERT IGNORE INTO movie_schedules (movie_id, weekday, position, show_time) VALUES (?,?,?,?)",
				e.MovieID, e.Weekday, e.Position, e.Time); err != nil {
				return nil, fmt.Errorf("seed schedule of %q: %w", m.Title, err)
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// seedShowtimesTx places movie i in theatre i mod len(theatres).  The
// seeded time lists never repeat a time within one theatre, which keeps the
// (date, time, theatre) key free of clashes.
func seedShowtimesTx(ctx context.Context, tx *sql.Tx, cfg config.SeedConfig, movieIDs, theatreIDs []uint64, caps []int) (int64, error) {
	var created int64
	for d := 0; d < cfg.Days; d++ {
		day := cfg.From.AddDate(0, 0, d)
		for i, m := range seedMovies {
			ti := i % len(theatreIDs)
			for _, at := range model.TimesFor(m.scheduleEntries(movieIDs[i]), int(day.Weekday())) {
				res, err := tx.ExecContext(ctx,
					`INSERT IGNORE INTO showtimes (movie_id, show_date, show_time, theatre_id, available_seats)
					 VALUES (?,?,?,?,?)`,
					movieIDs[i], day.Format("2006-01-02"), at, theatreIDs[ti], caps[ti])
				if err != nil {
					return created, fmt.Errorf("seed showtime %s %s: %w", day.Format("2006-01-02"), at, err)
				}
				if n, err := res.RowsAffected(); err == nil {
					created += n
				}
			}
		}
	}
	return created, nil
}

func seedUsersTx(ctx context.Context, tx *sql.Tx, cfg config.SeedConfig, cost int) error {
	users := []seedUser{
		{Email: "test@cinema.com", Password: "test1234", FirstName: "Test", LastName: "Cinema"},
		{Email: "admin@cinema.com", Password: cfg.AdminPassword, FirstName: "Admin", LastName: "Cinema", Admin: true},
	}
	for _, u := range users {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE email=?", u.Email).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return err
		}
		hash, err := utils.HashPassword(u.Password, cost)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO users (email, password_hash, first_name, last_name, is_admin, created_at, updated_at)
			 VALUES (?,?,?,?,?,?,?)`,
			u.Email, hash, u.FirstName, u.LastName, u.Admin, time.Now().UTC(), time.Now().UTC()); err != nil {
			return fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}
	return nil
}
