package service

import (
    "context"
    "errors"
    "strconv"
    "strings"
    "time"

    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/config"
    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/repository"
)

// MovieStore is the movie persistence used by CatalogService.
type MovieStore interface {
    List(ctx context.Context) ([]model.Movie, error)
    Search(ctx context.Context, q repository.MovieSearchQuery) ([]model.Movie, int64, error)
    GetByID(ctx context.Context, id uint64) (*model.Movie, error)
    GetByTitle(ctx context.Context, title string) (*model.Movie, error)
    Create(ctx context.Context, m *model.Movie, defaultTimes []string) error
    Update(ctx context.Context, m *model.Movie, defaultTimes []string) error
}

// ScheduleStore is the weekly schedule persistence used by CatalogService.
type ScheduleStore interface {
    ListForMovie(ctx context.Context, movieID uint64) ([]model.ScheduleEntry, error)
    ListAll(ctx context.Context) ([]model.ScheduleEntry, error)
    Replace(ctx context.Context, movieID uint64, weekday int, times []string) error
}

// MovieListing is a movie together with its default showtime list.
type MovieListing struct {
    model.Movie
    Showtimes []string
}

// MovieInput carries the fields of a new movie.
type MovieInput struct {
    Title       string
    Director    string
    Cast        []string
    Description string
    Duration    int
    Rating      string
    PosterURL   string
    TrailerURL  *string
    Color       *string
    Showtimes   []string
}

// MoviePatch carries an update; nil fields keep their current value.
type MoviePatch struct {
    Title       *string
    Director    *string
    Cast        []string
    Description *string
    Duration    *int
    Rating      *string
    PosterURL   *string
    TrailerURL  *string
    Color       *string
    Showtimes   []string
}

// MovieSearch filters the catalog listing.
type MovieSearch struct {
    Title    string
    Rating   string
    Date     string
    Page     int
    PageSize int
}

// CatalogService serves movie metadata, schedules and the price table.
type CatalogService struct {
    movies    MovieStore
    schedules ScheduleStore
    pricing   config.Pricing
    log       *zap.Logger
}

// NewCatalogService wires a CatalogService.
func NewCatalogService(movies MovieStore, schedules ScheduleStore, pricing config.Pricing, log *zap.Logger) *CatalogService {
    return &CatalogService{movies: movies, schedules: schedules, pricing: pricing, log: log}
}

// ListMovies returns every movie ordered by id with its default showtimes.
func (s *CatalogService) ListMovies(ctx context.Context) ([]MovieListing, error) {
    movies, err := s.movies.List(ctx)
    if err != nil {
        return nil, internal("list movies", err)
    }
    return s.withDefaults(ctx, movies)
}

// SearchMovies returns one page of movies matching q and the total count.
func (s *CatalogService) SearchMovies(ctx context.Context, q MovieSearch) ([]MovieListing, int64, error) {
    if q.Date != "" {
        if _, err := ParseDate(q.Date); err != nil {
            return nil, 0, err
        }
    }
    if q.PageSize > 100 {
        q.PageSize = 100
    }
    movies, total, err := s.movies.Search(ctx, repository.MovieSearchQuery{
        Title: strings.TrimSpace(q.Title), Rating: strings.TrimSpace(q.Rating), Date: q.Date,
        Page: q.Page, PageSize: q.PageSize,
    })
    if err != nil {
        return nil, 0, internal("search movies", err)
    }
    out, err := s.withDefaults(ctx, movies)
    return out, total, err
}

func (s *CatalogService) withDefaults(ctx context.Context, movies []model.Movie) ([]MovieListing, error) {
    entries, err := s.schedules.ListAll(ctx)
    if err != nil {
        return nil, internal("list schedules", err)
    }
    byMovie := make(map[uint64][]model.ScheduleEntry)
    for _, e := range entries {
        byMovie[e.MovieID] = append(byMovie[e.MovieID], e)
    }
    out := make([]MovieListing, 0, len(movies))
    for _, m := range movies {
        out = append(out, MovieListing{Movie: m, Showtimes: defaultTimes(byMovie[m.ID])})
    }
    return out, nil
}

func defaultTimes(entries []model.ScheduleEntry) []string {
    var def []model.ScheduleEntry
    for _, e := range entries {
        if e.Weekday == model.DefaultWeekday {
            def = append(def, e)
        }
    }
    return model.TimesFor(def, model.DefaultWeekday)
}

// ShowtimesFor returns the ordered show times of a movie on a date.  The
// movie is named by id or by title; an unknown movie has no showtimes.
func (s *CatalogService) ShowtimesFor(ctx context.Context, movieRef, date string) ([]string, error) {
    day, err := ParseDate(date)
    if err != nil {
        return nil, err
    }
    movie, err := s.resolveMovie(ctx, movieRef)
    if errors.Is(err, repository.ErrMovieNotFound) {
        return []string{}, nil
    }
    if err != nil {
        return nil, internal("resolve movie", err)
    }
    entries, err := s.schedules.ListForMovie(ctx, movie.ID)
    if err != nil {
        return nil, internal("list schedule", err)
    }
    return model.TimesFor(entries, int(day.Weekday())), nil
}

func (s *CatalogService) resolveMovie(ctx context.Context, ref string) (*model.Movie, error) {
    ref = strings.TrimSpace(ref)
    if ref == "" {
        return nil, repository.ErrMovieNotFound
    }
    if id, err := strconv.ParseUint(ref, 10, 64); err == nil {
        m, err := s.movies.GetByID(ctx, id)
        if !errors.Is(err, repository.ErrMovieNotFound) {
            return m, err
        }
    }
    return s.movies.GetByTitle(ctx, ref)
}

// AddMovie creates a movie and its default showtime list.
func (s *CatalogService) AddMovie(ctx context.Context, in MovieInput) (*MovieListing, error) {
    m := model.Movie{
        Title:       strings.TrimSpace(in.Title),
        Director:    strings.TrimSpace(in.Director),
        Cast:        cleanList(in.Cast),
        Description: strings.TrimSpace(in.Description),
        Duration:    in.Duration,
        Rating:      strings.TrimSpace(in.Rating),
        PosterURL:   strings.TrimSpace(in.PosterURL),
        TrailerURL:  trimPtr(in.TrailerURL),
        Color:       trimPtr(in.Color),
    }
    if err := validateMovie(m); err != nil {
        return nil, err
    }
    times, err := normalizeTimes(in.Showtimes)
    if err != nil {
        return nil, err
    }
    if err := s.movies.Create(ctx, &m, times); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return nil, ErrDuplicateTitle
        }
        return nil, internal("create movie", err)
    }
    s.log.Info("movie added", zap.Uint64("movie_id", m.ID), zap.String("title", m.Title))
    return &MovieListing{Movie: m, Showtimes: times}, nil
}

// UpdateMovie applies patch to the movie with the given id.
func (s *CatalogService) UpdateMovie(ctx context.Context, id uint64, patch MoviePatch) (*MovieListing, error) {
    current, err := s.movies.GetByID(ctx, id)
    if errors.Is(err, repository.ErrMovieNotFound) {
        return nil, ErrMovieNotFound
    }
    if err != nil {
        return nil, internal("load movie", err)
    }
    m := *current
    if patch.Title != nil {
        m.Title = strings.TrimSpace(*patch.Title)
    }
    if patch.Director != nil {
        m.Director = strings.TrimSpace(*patch.Director)
    }
    if patch.Cast != nil {
        m.Cast = cleanList(patch.Cast)
    }
    if patch.Description != nil {
        m.Description = strings.TrimSpace(*patch.Description)
    }
    if patch.Duration != nil {
        m.Duration = *patch.Duration
    }
    if patch.Rating != nil {
        m.Rating = strings.TrimSpace(*patch.Rating)
    }
    if patch.PosterURL != nil {
        m.PosterURL = strings.TrimSpace(*patch.PosterURL)
    }
    if patch.TrailerURL != nil {
        m.TrailerURL = trimPtr(patch.TrailerURL)
    }
    if patch.Color != nil {
        m.Color = trimPtr(patch.Color)
    }
    if err := validateMovie(m); err != nil {
        return nil, err
    }
    var times []string
    if patch.Showtimes != nil {
        if times, err = normalizeTimes(patch.Showtimes); err != nil {
            return nil, err
        }
        if times == nil {
            times = []string{}
        }
    }
    if err := s.movies.Update(ctx, &m, times); err != nil {
        switch {
        case errors.Is(err, repository.ErrMovieNotFound):
            return nil, ErrMovieNotFound
        case errors.Is(err, repository.ErrDuplicate):
            return nil, ErrDuplicateTitle
        }
        return nil, internal("update movie", err)
    }
    entries, err := s.schedules.ListForMovie(ctx, m.ID)
    if err != nil {
        return nil, internal("list schedule", err)
    }
    return &MovieListing{Movie: m, Showtimes: defaultTimes(entries)}, nil
}

// SetSchedule replaces a movie's show times for one weekday (0 = Sunday)
// or, with model.DefaultWeekday, its default list.
func (s *CatalogService) SetSchedule(ctx context.Context, movieID uint64, weekday int, times []string) error {
    if weekday < model.DefaultWeekday || weekday > int(time.Saturday) {
        return invalid("weekday must be between 0 (Sunday) and 6, or -1 for the default list")
    }
    norm, err := normalizeTimes(times)
    if err != nil {
        return err
    }
    if _, err := s.movies.GetByID(ctx, movieID); err != nil {
        if errors.Is(err, repository.ErrMovieNotFound) {
            return ErrMovieNotFound
        }
        return internal("load movie", err)
    }
    if err := s.schedules.Replace(ctx, movieID, weekday, norm); err != nil {
        return internal("replace schedule", err)
    }
    return nil
}

// Prices returns the immutable price table.
func (s *CatalogService) Prices() config.Pricing { return s.pricing }

// AvailableDates returns n consecutive days starting with now's day, each
// with its ISO form and a short label such as "Thu 04 Dec".
func (s *CatalogService) AvailableDates(now time.Time, n int) []model.AvailableDate {
    if n < 1 {
        n = 1
    }
    if n > 31 {
        n = 31
    }
    y, m, d := now.Date()
    start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
    out := make([]model.AvailableDate, 0, n)
    for i := 0; i < n; i++ {
        day := start.AddDate(0, 0, i)
        out = append(out, model.AvailableDate{ISO: day.Format("2006-01-02"), Label: day.Format("Mon 02 Jan")})
    }
    return out
}

func validateMovie(m model.Movie) error {
    if m.Title == "" {
        return missing("title")
    }
    if m.Duration <= 0 {
        return ErrInvalidDuration
    }
    return nil
}

// ParseDate parses a YYYY-MM-DD day.
func ParseDate(s string) (time.Time, error) {
    d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
    if err != nil {
        return time.Time{}, invalid("invalid date %q, expected YYYY-MM-DD", s)
    }
    return d, nil
}

// ParseClock normalizes an "H:MM" or "HH:MM" time of day to "HH:MM".
func ParseClock(s string) (string, error) {
    t, err := time.Parse("15:04", strings.TrimSpace(s))
    if err != nil {
        return "", invalid("invalid time %q, expected HH:MM", s)
    }
    return t.Format("15:04"), nil
}

func normalizeTimes(in []string) ([]string, error) {
    if len(in) == 0 {
        return nil, nil
    }
    out := make([]string, 0, len(in))
    seen := make(map[string]bool, len(in))
    for _, raw := range in {
        t, err := ParseClock(raw)
        if err != nil {
            return nil, err
        }
        if seen[t] {
            return nil, invalid("time %s listed twice", t)
        }
        seen[t] = true
        out = append(out, t)
    }
    return out, nil
}

func cleanList(in []string) []string {
    out := make([]string, 0, len(in))
    for _, v := range in {
        if v = strings.TrimSpace(v); v != "" {
            out = append(out, v)
        }
    }
    return out
}

func trimPtr(p *string) *string {
    if p == nil {
        return nil
    }
    v := strings.TrimSpace(*p)
    if v == "" {
        return nil
    }
    return &v
}
