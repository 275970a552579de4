package repository

import (
    "context"
    "testing"
    "time"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/go-sql-driver/mysql"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/cinemax/internal/model"
)

var movieCols = []string{"id", "title", "director", "cast_members", "description", "duration_min", "rating",
    "poster_url", "trailer_url", "color", "created_at", "updated_at"}

func TestMovieListDecodesCast(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    now := time.Now().UTC()
    mock.ExpectQuery("FROM movies ORDER BY id").WillReturnRows(sqlmock.NewRows(movieCols).
        AddRow(1, "Nuit Blanche", "A. Martin", []byte(`["Léa","Marc"]`), "Enquête", 118, "PG-13", "p.jpg", nil, "red", now, now).
        AddRow(2, "Coeurs en Hiver", "", nil, "Comédie", 95, "Tous publics", "q.jpg", "t.mp4", nil, now, now))

    movies, err := NewMovieRepo(db).List(context.Background())
    require.NoError(t, err)
    require.Len(t, movies, 2)
    assert.Equal(t, []string{"Léa", "Marc"}, movies[0].Cast)
    require.NotNil(t, movies[0].Color)
    assert.Nil(t, movies[0].TrailerURL)
    assert.Equal(t, []string{}, movies[1].Cast)
    require.NotNil(t, movies[1].TrailerURL)
    assert.Equal(t, "t.mp4", *movies[1].TrailerURL)
}

func TestMovieCreateDuplicateTitle(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO movies").WillReturnError(&mysql.MySQLError{Number: 1062})
    mock.ExpectRollback()

    err = NewMovieRepo(db).Create(context.Background(), &model.Movie{Title: "Nuit Blanche", Duration: 90}, nil)
    assert.ErrorIs(t, err, ErrDuplicate)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieCreateWritesDefaultSchedule(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    now := time.Now().UTC()
    mock.ExpectBegin()
    mock.ExpectExec("INSERT INTO movies").WillReturnResult(sqlmock.NewResult(12, 1))
    mock.ExpectExec("DELETE FROM movie_schedules").WithArgs(12, model.DefaultWeekday).WillReturnResult(sqlmock.NewResult(0, 0))
    mock.ExpectExec("INSERT INTO movie_schedules").
        WithArgs(12, model.DefaultWeekday, 0, "14:00", 12, model.DefaultWeekday, 1, "18:00").
        WillReturnResult(sqlmock.NewResult(0, 2))
    mock.ExpectQuery("FROM movies WHERE id").WithArgs(12).WillReturnRows(sqlmock.NewRows(movieCols).
        AddRow(12, "Dune", "D. Villeneuve", []byte(`[]`), "Desert", 155, "PG-13", "", nil, nil, now, now))
    mock.ExpectCommit()

    m := &model.Movie{Title: "Dune", Director: "D. Villeneuve", Duration: 155}
    require.NoError(t, NewMovieRepo(db).Create(context.Background(), m, []string{"14:00", "18:00"}))
    assert.Equal(t, uint64(12), m.ID)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovieUpdateUnknown(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    mock.ExpectBegin()
    mock.ExpectQuery("SELECT 1 FROM movies").WillReturnRows(sqlmock.NewRows([]string{"1"}))
    mock.ExpectRollback()

    err = NewMovieRepo(db).Update(context.Background(), &model.Movie{ID: 404, Title: "X", Duration: 1}, nil)
    assert.ErrorIs(t, err, ErrMovieNotFound)
}

func TestMovieSearchFilters(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()

    now := time.Now().UTC()
    mock.ExpectQuery("SELECT COUNT").WithArgs("%nuit%", "2025-12-04").
        WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
    mock.ExpectQuery("LIMIT").WithArgs("%nuit%", "2025-12-04", 5, 5).WillReturnRows(sqlmock.NewRows(movieCols).
        AddRow(5, "Nuit Blanche", "", nil, "", 118, "PG-13", "", nil, nil, now, now))

    movies, total, err := NewMovieRepo(db).Search(context.Background(),
        MovieSearchQuery{Title: "Nuit", Date: "2025-12-04", Page: 2, PageSize: 5})
    require.NoError(t, err)
    assert.Equal(t, int64(1), total)
    require.Len(t, movies, 1)
    assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShowtimeCreate(t *testing.T) {
    t.Run("unknown theatre", func(t *testing.T) {
        db, mock, err := sqlmock.New()
        require.NoError(t, err)
        defer db.Close()
        mock.ExpectExec("INSERT INTO showtimes").WillReturnResult(sqlmock.NewResult(0, 0))

        st := &model.Showtime{MovieID: 1, Date: testDay, Time: "14:00", TheatreID: 9}
        assert.ErrorIs(t, NewShowtimeRepo(db).Create(context.Background(), st), ErrTheatreNotFound)
    })
    t.Run("slot taken", func(t *testing.T) {
        db, mock, err := sqlmock.New()
        require.NoError(t, err)
        defer db.Close()
        mock.ExpectExec("INSERT INTO showtimes").WillReturnError(&mysql.MySQLError{Number: 1062})

        st := &model.Showtime{MovieID: 1, Date: testDay, Time: "14:00", TheatreID: 1}
        assert.ErrorIs(t, NewShowtimeRepo(db).Create(context.Background(), st), ErrDuplicate)
    })
    t.Run("created with capacity", func(t *testing.T) {
        db, mock, err := sqlmock.New()
        require.NoError(t, err)
        defer db.Close()
        mock.ExpectExec("INSERT INTO showtimes").WithArgs(1, "2025-12-04", "14:00", 1).
            WillReturnResult(sqlmock.NewResult(40, 1))
        mock.ExpectQuery("WHERE s.id").WithArgs(40).WillReturnRows(sqlmock.NewRows(
            []string{"id", "movie_id", "title", "show_date", "show_time", "theatre_id", "name", "available_seats", "created_at"}).
            AddRow(40, 1, "Les Étoiles Oubliées", testDay, "14:00", 1, "Salle 1", 96, testDay))

        st := &model.Showtime{MovieID: 1, Date: testDay, Time: "14:00", TheatreID: 1}
        require.NoError(t, NewShowtimeRepo(db).Create(context.Background(), st))
        assert.Equal(t, uint64(40), st.ID)
        assert.Equal(t, 96, st.AvailableSeats)
        assert.Equal(t, "Salle 1", st.TheatreName)
    })
}

func TestBookedSeats(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    mock.ExpectQuery("FROM seat_bookings").WithArgs(7).
        WillReturnRows(sqlmock.NewRows([]string{"row_letter", "seat_number"}).AddRow("A", 1).AddRow("C", 4))

    seats, err := NewSeatRepo(db).BookedSeats(context.Background(), 7)
    require.NoError(t, err)
    assert.Equal(t, []model.SeatRef{{Row: "A", Number: 1}, {Row: "C", Number: 4}}, seats)
}

func TestScheduleListForMovie(t *testing.T) {
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    defer db.Close()
    mock.ExpectQuery("FROM movie_schedules").WithArgs(2).
        WillReturnRows(sqlmock.NewRows([]string{"movie_id", "weekday", "position", "show_time"}).
            AddRow(2, -1, 0, "13:15").AddRow(2, 6, 0, "10:30"))

    entries, err := NewScheduleRepo(db).ListForMovie(context.Background(), 2)
    require.NoError(t, err)
    assert.Equal(t, []string{"10:30"}, model.TimesFor(entries, 6))
    assert.Equal(t, []string{"13:15"}, model.TimesFor(entries, 1))
}

func TestPlaceholders(t *testing.T) {
    assert.Equal(t, "", placeholders(0))
    assert.Equal(t, "?", placeholders(1))
    assert.Equal(t, "?,?,?", placeholders(3))
}
