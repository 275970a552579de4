package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/service"
)

// BookingAPI is the booking service as seen by the HTTP layer.
type BookingAPI interface {
    CreateBooking(ctx context.Context, userID uint64, req service.BookingRequest) (*model.Reservation, error)
    UpdateBooking(ctx context.Context, bookingID, userID uint64, upd service.BookingUpdate) (*model.Reservation, error)
    DeleteBooking(ctx context.Context, bookingID, userID uint64) error
    ListBookings(ctx context.Context, userID uint64) ([]model.Reservation, error)
    ProcessPayment(ctx context.Context, bookingID, userID uint64, amount decimal.Decimal) (*model.Reservation, error)
    TicketQRCode(ctx context.Context, bookingID, userID uint64, size int) ([]byte, error)
}

// BookingHandler serves the customer booking endpoints.
type BookingHandler struct {
    Bookings BookingAPI
    Log      *zap.Logger
}

func NewBookingHandler(bookings BookingAPI, log *zap.Logger) *BookingHandler {
    return &BookingHandler{Bookings: bookings, Log: log}
}

// selectedSeatReq is one seat picked on the seat map.  The front end
// sends both the split form and the "A-1" id; the id fills whatever
// part is missing.
type selectedSeatReq struct {
    Row    string `json:"row"`
    Seat   int    `json:"seat" validate:"gte=0"`
    SeatID string `json:"seatId"`
}

func (s selectedSeatReq) selection() (service.SeatSelection, error) {
    row, seat := strings.TrimSpace(s.Row), s.Seat
    if (row == "" || seat == 0) && s.SeatID != "" {
        r, n, ok := strings.Cut(strings.TrimSpace(s.SeatID), "-")
        if !ok {
            return service.SeatSelection{}, service.Invalid("invalid seat id " + s.SeatID)
        }
        v, err := strconv.Atoi(n)
        if err != nil {
            return service.SeatSelection{}, service.Invalid("invalid seat id " + s.SeatID)
        }
        if row == "" {
            row = r
        }
        if seat == 0 {
            seat = v
        }
    }
    if row == "" || seat == 0 {
        return service.SeatSelection{}, service.Invalid("selected seats need a row and a seat number")
    }
    return service.SeatSelection{Row: row, Seat: seat}, nil
}

type createBookingReq struct {
    FilmTitle      string            `json:"film_title"`
    FilmDate       string            `json:"film_date"`
    FilmTime       string            `json:"film_time"`
    Seats          int               `json:"seats" validate:"gte=0,max=50"`
    SeatCategories []string          `json:"seat_categories"`
    SelectedSeats  []selectedSeatReq `json:"selected_seats" validate:"max=50,dive"`
    ShowtimeID     *uint64           `json:"showtime_id"`
    TheatreID      *uint64           `json:"theatre_id"`
}

type updateBookingReq struct {
    FilmTitle      *string  `json:"film_title"`
    FilmDate       *string  `json:"film_date"`
    FilmTime       *string  `json:"film_time"`
    Seats          *int     `json:"seats" validate:"omitempty,gte=1,max=50"`
    SeatCategories []string `json:"seat_categories"`
}

// Create books seats for the caller.
func (h *BookingHandler) Create(c echo.Context) error {
    id, err := caller(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    var req createBookingReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    selected := make([]service.SeatSelection, 0, len(req.SelectedSeats))
    for _, s := range req.SelectedSeats {
        sel, err := s.selection()
        if err != nil {
            return fail(c, h.Log, err)
        }
        selected = append(selected, sel)
    }
    seats := req.Seats
    if seats == 0 {
        seats = len(selected)
    }
    if seats == 0 {
        return fail(c, h.Log, service.MissingFields("seats"))
    }

    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Bookings.CreateBooking(ctx, id.UserID, service.BookingRequest{
        MovieTitle: req.FilmTitle,
        Date:       req.FilmDate,
        Time:       req.FilmTime,
        Seats:      seats,
        Categories: req.SeatCategories,
        Selected:   selected,
        ShowtimeID: req.ShowtimeID,
        TheatreID:  req.TheatreID,
    })
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": toBookingDTO(*res)})
}

// Mine lists the caller's bookings, newest first.
func (h *BookingHandler) Mine(c echo.Context) error {
    id, err := caller(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    list, err := h.Bookings.ListBookings(ctx, id.UserID)
    if err != nil {
        return fail(c, h.Log, err)
    }
    out := make([]bookingDTO, 0, len(list))
    for _, r := range list {
        out = append(out, toBookingDTO(r))
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "bookings": out})
}

// Update changes one of the caller's bookings.
func (h *BookingHandler) Update(c echo.Context) error {
    id, err := caller(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    bookingID, err := pathID(c, "id")
    if err != nil {
        return fail(c, h.Log, err)
    }
    var req updateBookingReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Bookings.UpdateBooking(ctx, bookingID, id.UserID, service.BookingUpdate{
        MovieTitle: req.FilmTitle,
        Date:       req.FilmDate,
        Time:       req.FilmTime,
        Seats:      req.Seats,
        Categories: req.SeatCategories,
    })
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "booking": toBookingDTO(*res)})
}

// Delete cancels one of the caller's bookings.
func (h *BookingHandler) Delete(c echo.Context) error {
    id, err := caller(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    bookingID, err := pathID(c, "id")
    if err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    if err := h.Bookings.DeleteBooking(ctx, bookingID, id.UserID); err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true})
}
