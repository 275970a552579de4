package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/service"
)

// Invalidator drops cached public responses after a catalog change.
type Invalidator interface {
    Invalidate(ctx context.Context)
}

// AdminHandler serves the catalog management endpoints.
type AdminHandler struct {
    Catalog  CatalogAPI
    Registry RegistryAPI
    Cache    Invalidator
    Log      *zap.Logger
}

func NewAdminHandler(catalog CatalogAPI, registry RegistryAPI, cache Invalidator, log *zap.Logger) *AdminHandler {
    return &AdminHandler{Catalog: catalog, Registry: registry, Cache: cache, Log: log}
}

type createMovieReq struct {
    Title       string   `json:"title" validate:"required"`
    Director    string   `json:"director"`
    Cast        []string `json:"cast"`
    Description string   `json:"description"`
    Duration    int      `json:"duration" validate:"required"`
    Rating      string   `json:"ratings"`
    Poster      string   `json:"poster"`
    Trailer     *string  `json:"trailer"`
    Color       *string  `json:"color"`
    Showtimes   []string `json:"showtimes"`
}

type updateMovieReq struct {
    Title       *string  `json:"title"`
    Director    *string  `json:"director"`
    Cast        []string `json:"cast"`
    Description *string  `json:"description"`
    Duration    *int     `json:"duration"`
    Rating      *string  `json:"ratings"`
    Poster      *string  `json:"poster"`
    Trailer     *string  `json:"trailer"`
    Color       *string  `json:"color"`
    Showtimes   []string `json:"showtimes"`
}

type scheduleReq struct {
    Weekday *int     `json:"weekday" validate:"required"`
    Times   []string `json:"times"`
}

type createShowtimeReq struct {
    FilmTitle string `json:"film_title" validate:"required"`
    FilmDate  string `json:"film_date" validate:"required"`
    FilmTime  string `json:"film_time" validate:"required"`
    TheatreID uint64 `json:"theatre_id" validate:"required"`
}

// CreateMovie adds a movie to the catalog.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
    var req createMovieReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    m, err := h.Catalog.AddMovie(ctx, service.MovieInput{
        Title: req.Title, Director: req.Director, Cast: req.Cast, Description: req.Description,
        Duration: req.Duration, Rating: req.Rating, PosterURL: req.Poster,
        TrailerURL: req.Trailer, Color: req.Color, Showtimes: req.Showtimes,
    })
    if err != nil {
        return fail(c, h.Log, err)
    }
    h.Cache.Invalidate(ctx)
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "movie": toMovieDTO(*m)})
}

// UpdateMovie changes the given fields of a movie.
func (h *AdminHandler) UpdateMovie(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, h.Log, err)
    }
    var req updateMovieReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    m, err := h.Catalog.UpdateMovie(ctx, id, service.MoviePatch{
        Title: req.Title, Director: req.Director, Cast: req.Cast, Description: req.Description,
        Duration: req.Duration, Rating: req.Rating, PosterURL: req.Poster,
        TrailerURL: req.Trailer, Color: req.Color, Showtimes: req.Showtimes,
    })
    if err != nil {
        return fail(c, h.Log, err)
    }
    h.Cache.Invalidate(ctx)
    return c.JSON(http.StatusOK, echo.Map{"success": true, "movie": toMovieDTO(*m)})
}

// SetSchedule replaces the show times of a movie for one weekday, or its
// default list with weekday -1.
func (h *AdminHandler) SetSchedule(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return fail(c, h.Log, err)
    }
    var req scheduleReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Catalog.SetSchedule(ctx, id, *req.Weekday, req.Times); err != nil {
        return fail(c, h.Log, err)
    }
    h.Cache.Invalidate(ctx)
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// CreateShowtime schedules a screening.
func (h *AdminHandler) CreateShowtime(c echo.Context) error {
    var req createShowtimeReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    st, err := h.Registry.AddShowtime(ctx, service.ShowtimeInput{
        MovieTitle: req.FilmTitle, Date: req.FilmDate, Time: req.FilmTime, TheatreID: req.TheatreID,
    })
    if err != nil {
        return fail(c, h.Log, err)
    }
    h.Cache.Invalidate(ctx)
    return c.JSON(http.StatusCreated, echo.Map{"success": true, "showtime": toShowtimeDTO(*st)})
}
