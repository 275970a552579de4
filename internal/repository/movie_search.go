package repository

import (
	"context"
	"strings"

	"github.com/iliyamo/cinemax/internal/model"
)

// MovieSearchQuery defines filters & pagination for searching movies.
type MovieSearchQuery struct {
	Title    string // substring match, case-insensitive
	Rating   string // exact content rating
	Date     string // only movies with a showtime that day (YYYY-MM-DD)
	Page     int
	PageSize int
}

// Search returns one page of matching movies ordered by id, plus the
// total number of matches.
func (r *MovieRepo) Search(ctx context.Context, q MovieSearchQuery) ([]model.Movie, int64, error) {
	where := []string{}
	args := []any{}

	if q.Title != "" {
		where = append(where, "LOWER(title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Title)+"%")
	}
	if q.Rating != "" {
		where = append(where, "rating = ?")
		args = append(args, q.Rating)
	}
	if q.Date != "" {
		where = append(where, "EXISTS (SELECT 1 FROM showtimes s WHERE s.movie_id = movies.id AND s.show_date = ?)")
		args = append(args, q.Date)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM movies WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := "SELECT " + movieColumns + " FROM movies WHERE " + cond + " ORDER BY id LIMIT ? OFFSET ?"
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Movie, 0, limit)
	for rows.Next() {
		m, err := scanMovie(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
