package service

import (
    "context"
    "errors"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/repository"
)

// ShowtimeStore is the showtime persistence used by RegistryService.
type ShowtimeStore interface {
    ListByDate(ctx context.Context, day time.Time) ([]model.Showtime, error)
    GetByID(ctx context.Context, id uint64) (*model.Showtime, error)
    Create(ctx context.Context, st *model.Showtime) error
}

// TheatreStore is the theatre persistence used by RegistryService.
type TheatreStore interface {
    List(ctx context.Context) ([]model.Theatre, error)
    GetByID(ctx context.Context, id uint64) (*model.Theatre, error)
}

// SeatLedger reads the occupied seats of a showtime.
type SeatLedger interface {
    BookedSeats(ctx context.Context, showtimeID uint64) ([]model.SeatRef, error)
}

// MovieFinder resolves movies by title.
type MovieFinder interface {
    GetByTitle(ctx context.Context, title string) (*model.Movie, error)
}

// ShowtimeInput carries the fields of a new showtime.
type ShowtimeInput struct {
    MovieTitle string
    Date       string
    Time       string
    TheatreID  uint64
}

// RegistryService manages theatres, showtimes and seat maps.
type RegistryService struct {
    showtimes ShowtimeStore
    theatres  TheatreStore
    seats     SeatLedger
    movies    MovieFinder
    log       *zap.Logger
}

// NewRegistryService wires a RegistryService.
func NewRegistryService(showtimes ShowtimeStore, theatres TheatreStore, seats SeatLedger, movies MovieFinder, log *zap.Logger) *RegistryService {
    return &RegistryService{showtimes: showtimes, theatres: theatres, seats: seats, movies: movies, log: log}
}

// ShowtimesOnDate lists the showtimes of a day ordered by time, then theatre.
func (s *RegistryService) ShowtimesOnDate(ctx context.Context, date string) ([]model.Showtime, error) {
    day, err := ParseDate(date)
    if err != nil {
        return nil, err
    }
    list, err := s.showtimes.ListByDate(ctx, day)
    if err != nil {
        return nil, internal("list showtimes", err)
    }
    return list, nil
}

// ListTheatres returns every theatre.
func (s *RegistryService) ListTheatres(ctx context.Context) ([]model.Theatre, error) {
    list, err := s.theatres.List(ctx)
    if err != nil {
        return nil, internal("list theatres", err)
    }
    return list, nil
}

// AddShowtime schedules a movie in a theatre.  The new showtime starts
// with every seat available.
func (s *RegistryService) AddShowtime(ctx context.Context, in ShowtimeInput) (*model.Showtime, error) {
    var absent []string
    if strings.TrimSpace(in.MovieTitle) == "" {
        absent = append(absent, "film_title")
    }
    if strings.TrimSpace(in.Date) == "" {
        absent = append(absent, "film_date")
    }
    if strings.TrimSpace(in.Time) == "" {
        absent = append(absent, "film_time")
    }
    if in.TheatreID == 0 {
        absent = append(absent, "theatre_id")
    }
    if len(absent) > 0 {
        return nil, missing(absent...)
    }
    day, err := ParseDate(in.Date)
    if err != nil {
        return nil, err
    }
    at, err := ParseClock(in.Time)
    if err != nil {
        return nil, err
    }
    movie, err := s.movies.GetByTitle(ctx, strings.TrimSpace(in.MovieTitle))
    if errors.Is(err, repository.ErrMovieNotFound) {
        return nil, ErrMovieNotFound
    }
    if err != nil {
        return nil, internal("load movie", err)
    }

    st := model.Showtime{MovieID: movie.ID, Date: day, Time: at, TheatreID: in.TheatreID}
    if err := s.showtimes.Create(ctx, &st); err != nil {
        switch {
        case errors.Is(err, repository.ErrTheatreNotFound):
            return nil, ErrTheatreNotFound
        case errors.Is(err, repository.ErrDuplicate):
            return nil, ErrDuplicateShowtime
        }
        return nil, internal("create showtime", err)
    }
    s.log.Info("showtime added",
        zap.Uint64("showtime_id", st.ID),
        zap.String("movie", movie.Title),
        zap.String("date", in.Date),
        zap.String("time", at),
        zap.Uint64("theatre_id", in.TheatreID))
    return &st, nil
}

// SeatMap returns the booked/free grid of a showtime.  The ledger is read
// without locks, so the map is advisory.
func (s *RegistryService) SeatMap(ctx context.Context, showtimeID uint64) (*model.SeatMap, error) {
    st, err := s.showtimes.GetByID(ctx, showtimeID)
    if errors.Is(err, repository.ErrShowtimeNotFound) {
        return nil, ErrShowtimeNotFound
    }
    if err != nil {
        return nil, internal("load showtime", err)
    }
    th, err := s.theatres.GetByID(ctx, st.TheatreID)
    if err != nil {
        return nil, internal("load theatre", err)
    }
    booked, err := s.seats.BookedSeats(ctx, showtimeID)
    if err != nil {
        return nil, internal("load seat ledger", err)
    }
    taken := make(map[model.SeatRef]bool, len(booked))
    for _, b := range booked {
        taken[b] = true
    }

    rows := min(th.SeatRows, model.MaxTheatreRows)
    sm := &model.SeatMap{Showtime: *st, Theatre: *th, Rows: make([]model.SeatRow, 0, rows)}
    for r := 0; r < rows; r++ {
        letter := model.RowLetter(r)
        row := model.SeatRow{Row: letter, Seats: make([]model.SeatState, 0, th.SeatsPerRow)}
        for n := 1; n <= th.SeatsPerRow; n++ {
            row.Seats = append(row.Seats, model.SeatState{Number: n, Booked: taken[model.SeatRef{Row: letter, Number: n}]})
        }
        sm.Rows = append(sm.Rows, row)
    }
    return sm, nil
}
