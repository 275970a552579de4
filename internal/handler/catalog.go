package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/config"
    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/service"
)

// CatalogAPI is the movie catalog as seen by the HTTP layer.
type CatalogAPI interface {
    ListMovies(ctx context.Context) ([]service.MovieListing, error)
    SearchMovies(ctx context.Context, q service.MovieSearch) ([]service.MovieListing, int64, error)
    ShowtimesFor(ctx context.Context, movieRef, date string) ([]string, error)
    AddMovie(ctx context.Context, in service.MovieInput) (*service.MovieListing, error)
    UpdateMovie(ctx context.Context, id uint64, patch service.MoviePatch) (*service.MovieListing, error)
    SetSchedule(ctx context.Context, movieID uint64, weekday int, times []string) error
    Prices() config.Pricing
    AvailableDates(now time.Time, n int) []model.AvailableDate
}

// RegistryAPI exposes theatres, showtimes and seat maps.
type RegistryAPI interface {
    ShowtimesOnDate(ctx context.Context, date string) ([]model.Showtime, error)
    ListTheatres(ctx context.Context) ([]model.Theatre, error)
    AddShowtime(ctx context.Context, in service.ShowtimeInput) (*model.Showtime, error)
    SeatMap(ctx context.Context, showtimeID uint64) (*model.SeatMap, error)
}

// PublicHandler serves the unauthenticated browse endpoints.
type PublicHandler struct {
    Catalog  CatalogAPI
    Registry RegistryAPI
    Log      *zap.Logger
    Now      func() time.Time
}

func NewPublicHandler(catalog CatalogAPI, registry RegistryAPI, log *zap.Logger) *PublicHandler {
    return &PublicHandler{Catalog: catalog, Registry: registry, Log: log, Now: time.Now}
}

// defaultDateDays is the length of the date picker when ?days is absent.
const defaultDateDays = 5

// Movies lists the catalog.  Any of title, rating, date, page or
// page_size switches to the paginated search.
func (h *PublicHandler) Movies(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    q := c.QueryParams()
    searching := false
    for _, k := range []string{"title", "rating", "date", "page", "page_size"} {
        if q.Has(k) {
            searching = true
            break
        }
    }
    if !searching {
        movies, err := h.Catalog.ListMovies(ctx)
        if err != nil {
            return fail(c, h.Log, err)
        }
        return c.JSON(http.StatusOK, echo.Map{"success": true, "movies": moviesOut(movies)})
    }

    page, _ := strconv.Atoi(c.QueryParam("page"))
    if page < 1 {
        page = 1
    }
    ps, _ := strconv.Atoi(c.QueryParam("page_size"))
    if ps < 1 {
        ps = 20
    }
    if ps > 100 {
        ps = 100
    }
    movies, total, err := h.Catalog.SearchMovies(ctx, service.MovieSearch{
        Title:    strings.TrimSpace(c.QueryParam("title")),
        Rating:   strings.TrimSpace(c.QueryParam("rating")),
        Date:     strings.TrimSpace(c.QueryParam("date")),
        Page:     page,
        PageSize: ps,
    })
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":   true,
        "movies":    moviesOut(movies),
        "total":     total,
        "page":      page,
        "page_size": ps,
    })
}

func moviesOut(in []service.MovieListing) []movieDTO {
    out := make([]movieDTO, 0, len(in))
    for _, m := range in {
        out = append(out, toMovieDTO(m))
    }
    return out
}

// ShowtimesOnDate lists the scheduled screenings of a day.
func (h *PublicHandler) ShowtimesOnDate(c echo.Context) error {
    return h.listShowtimes(c, c.Param("date"))
}

// MovieShowtimes answers ?movie=&date= with the show times of one movie
// on that day.  Without a movie it falls back to the day's screenings.
func (h *PublicHandler) MovieShowtimes(c echo.Context) error {
    movie := strings.TrimSpace(c.QueryParam("movie"))
    date := strings.TrimSpace(c.QueryParam("date"))
    if movie == "" {
        if date == "" {
            return fail(c, h.Log, service.MissingFields("date"))
        }
        return h.listShowtimes(c, date)
    }
    if date == "" {
        return fail(c, h.Log, service.MissingFields("date"))
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    times, err := h.Catalog.ShowtimesFor(ctx, movie, date)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "showtimes": times})
}

func (h *PublicHandler) listShowtimes(c echo.Context, date string) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    list, err := h.Registry.ShowtimesOnDate(ctx, date)
    if err != nil {
        return fail(c, h.Log, err)
    }
    out := make([]showtimeDTO, 0, len(list))
    for _, s := range list {
        out = append(out, toShowtimeDTO(s))
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "showtimes": out})
}

// Seats returns the seat map of a showtime.
func (h *PublicHandler) Seats(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    sm, err := h.Registry.SeatMap(ctx, id)
    if err != nil {
        return fail(c, h.Log, err)
    }
    rows := make([]seatRowDTO, 0, len(sm.Rows))
    for _, r := range sm.Rows {
        seats := make([]seatDTO, 0, len(r.Seats))
        for _, s := range r.Seats {
            seats = append(seats, seatDTO{Number: s.Number, Booked: s.Booked})
        }
        rows = append(rows, seatRowDTO{Row: r.Row, Seats: seats})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "success":         true,
        "showtime_id":     sm.Showtime.ID,
        "film_title":      sm.Showtime.MovieTitle,
        "film_date":       sm.Showtime.Date.Format("2006-01-02"),
        "film_time":       sm.Showtime.Time,
        "theatre":         toTheatreDTO(sm.Theatre),
        "available_seats": sm.Showtime.AvailableSeats,
        "rows":            rows,
    })
}

// Prices returns the ticket price table.
func (h *PublicHandler) Prices(c echo.Context) error {
    table := h.Catalog.Prices().Table()
    out := make(map[string]float64, len(table))
    for k, v := range table {
        out[k] = v.InexactFloat64()
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "prices": out})
}

// Dates returns the rolling date picker, ?days long.
func (h *PublicHandler) Dates(c echo.Context) error {
    n := defaultDateDays
    if s := c.QueryParam("days"); s != "" {
        v, err := strconv.Atoi(s)
        if err != nil {
            return fail(c, h.Log, service.Invalid("invalid days"))
        }
        n = v
    }
    dates := h.Catalog.AvailableDates(h.Now(), n)
    out := make([]echo.Map, 0, len(dates))
    for _, d := range dates {
        out = append(out, echo.Map{"date": d.ISO, "label": d.Label})
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "dates": out})
}

// Theatres lists the theatres.
func (h *PublicHandler) Theatres(c echo.Context) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    list, err := h.Registry.ListTheatres(ctx)
    if err != nil {
        return fail(c, h.Log, err)
    }
    out := make([]theatreDTO, 0, len(list))
    for _, t := range list {
        out = append(out, toTheatreDTO(t))
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "theatres": out})
}
