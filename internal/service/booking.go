package service

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/shopspring/decimal"
    "github.com/skip2/go-qrcode"
    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/config"
    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/queue"
    "github.com/iliyamo/cinemax/internal/repository"
)

// ReservationStore is the reservation persistence used by BookingService.
// CreateWithSeats, Update and Delete must keep the seat ledger and the
// showtime counter consistent within one transaction.  Update refuses a
// reservation that is no longer pending with repository.ErrAlreadyPaid.
type ReservationStore interface {
    CreatePlain(ctx context.Context, res *model.Reservation) error
    CreateWithSeats(ctx context.Context, res *model.Reservation) error
    GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
    ListByUser(ctx context.Context, userID uint64) ([]model.Reservation, error)
    Update(ctx context.Context, res *model.Reservation) error
    Delete(ctx context.Context, id uint64) error
    MarkPaid(ctx context.Context, id uint64, paymentRef string) error
}

// EventPublisher delivers booking lifecycle events.
type EventPublisher interface {
    Publish(ctx context.Context, ev queue.BookingEvent) error
}

// SeatSelection is one seat picked on the seat map.
type SeatSelection struct {
    Row  string
    Seat int
}

// BookingRequest carries a new booking.
type BookingRequest struct {
    MovieTitle string
    Date       string
    Time       string
    Seats      int
    Categories []string
    Selected   []SeatSelection
    ShowtimeID *uint64
    TheatreID  *uint64
}

// BookingUpdate carries changes to a booking; nil fields keep their value.
type BookingUpdate struct {
    MovieTitle *string
    Date       *string
    Time       *string
    Seats      *int
    Categories []string
}

const publishTimeout = 3 * time.Second

// BookingService prices, creates, updates, cancels and pays bookings.
type BookingService struct {
    reservations ReservationStore
    pricing      config.Pricing
    events       EventPublisher
    log          *zap.Logger
    now          func() time.Time
}

// NewBookingService wires a BookingService.
func NewBookingService(reservations ReservationStore, pricing config.Pricing, events EventPublisher, log *zap.Logger) *BookingService {
    return &BookingService{reservations: reservations, pricing: pricing, events: events, log: log, now: time.Now}
}

// CreateBooking prices and stores a booking for userID.  With selected
// seats and both showtime and theatre ids the seats are claimed in the
// seat ledger atomically; otherwise only the reservation row is written.
func (s *BookingService) CreateBooking(ctx context.Context, userID uint64, req BookingRequest) (*model.Reservation, error) {
    if err := checkSeatCount(req.Seats); err != nil {
        return nil, err
    }
    quote := QuotePrice(s.pricing, req.Seats, req.Categories)
    res := &model.Reservation{
        UserID:         userID,
        SeatCount:      req.Seats,
        TotalPrice:     quote.Total,
        SeatCategories: echoCategories(req.Categories),
        Status:         model.StatusPending,
    }

    seatLevel := len(req.Selected) > 0 && req.ShowtimeID != nil && req.TheatreID != nil
    if !seatLevel {
        if err := fillSchedule(res, req.MovieTitle, req.Date, req.Time); err != nil {
            return nil, err
        }
        if err := s.reservations.CreatePlain(ctx, res); err != nil {
            return nil, internal("create booking", err)
        }
        s.publish(ctx, queue.KindCreated, *res)
        return res, nil
    }

    seats, err := s.selectionToSeats(req.Selected, req.Seats, quote)
    if err != nil {
        return nil, err
    }
    // the repository replaces film, date and time with the showtime's own
    res.MovieTitle = strings.TrimSpace(req.MovieTitle)
    res.Date = strings.TrimSpace(req.Date)
    res.Time = strings.TrimSpace(req.Time)
    res.ShowtimeID = req.ShowtimeID
    res.TheatreID = req.TheatreID
    res.Seats = seats

    if err := s.reservations.CreateWithSeats(ctx, res); err != nil {
        return nil, translateLedgerError(err)
    }
    s.log.Info("booking created",
        zap.Uint64("reservation_id", res.ID),
        zap.Uint64("user_id", userID),
        zap.Uint64("showtime_id", *res.ShowtimeID),
        zap.Strings("seats", seatLabels(res.Seats)),
        zap.String("total", res.TotalPrice.StringFixed(2)))
    s.publish(ctx, queue.KindCreated, *res)
    return res, nil
}

func (s *BookingService) selectionToSeats(selected []SeatSelection, count int, quote Quote) ([]model.SeatBooking, error) {
    if len(selected) != count {
        return nil, invalid("selected %d seat(s) but booked %d", len(selected), count)
    }
    seen := make(map[model.SeatRef]bool, len(selected))
    out := make([]model.SeatBooking, 0, len(selected))
    for i, sel := range selected {
        cat, price := quote.Seat(i)
        idx, ok := model.RowIndex(sel.Row)
        if !ok || sel.Seat < 1 {
            return nil, invalid("invalid seat %s-%d", sel.Row, sel.Seat)
        }
        ref := model.SeatRef{Row: model.RowLetter(idx), Number: sel.Seat}
        if seen[ref] {
            return nil, invalid("seat %s selected twice", ref.Label())
        }
        seen[ref] = true
        out = append(out, model.SeatBooking{
            Row:      ref.Row,
            Number:   ref.Number,
            Category: cat,
            Price:    price,
        })
    }
    return out, nil
}

func translateLedgerError(err error) error {
    var taken *repository.SeatTakenError
    switch {
    case errors.As(err, &taken):
        labels := make([]string, 0, len(taken.Seats))
        for _, s := range taken.Seats {
            labels = append(labels, s.Label())
        }
        e := ErrSeatTaken.withMessage("seats already booked: %s", strings.Join(labels, ", "))
        e.Seats = labels
        return e
    case errors.Is(err, repository.ErrSeatTaken):
        return ErrSeatTaken
    case errors.Is(err, repository.ErrShowtimeNotFound):
        return ErrShowtimeNotFound
    case errors.Is(err, repository.ErrTheatreMismatch):
        return invalid("showtime is not scheduled in that theatre")
    case errors.Is(err, repository.ErrSeatOutOfRange):
        return invalid("%s", err.Error())
    }
    return internal("book seats", err)
}

// UpdateBooking changes a booking owned by userID and reprices it.  A
// seat-mapped booking keeps its film, date, time and seat count; only the
// seat categories may change.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID, userID uint64, upd BookingUpdate) (*model.Reservation, error) {
    res, err := s.owned(ctx, bookingID, userID)
    if err != nil {
        return nil, err
    }
    if res.Status == model.StatusPaid {
        return nil, ErrAlreadyPaid.withMessage("a paid booking cannot be changed")
    }

    title, date, at, seats := res.MovieTitle, res.Date, res.Time, res.SeatCount
    if upd.MovieTitle != nil {
        title = strings.TrimSpace(*upd.MovieTitle)
    }
    if upd.Date != nil {
        date = strings.TrimSpace(*upd.Date)
    }
    if upd.Time != nil {
        at = strings.TrimSpace(*upd.Time)
    }
    if upd.Seats != nil {
        seats = *upd.Seats
    }
    categories := res.SeatCategories
    if upd.Categories != nil {
        categories = upd.Categories
    }
    if err := checkSeatCount(seats); err != nil {
        return nil, err
    }

    if res.SeatMapped() {
        if seats != len(res.Seats) {
            return nil, invalid("seat count of a seat-mapped booking cannot change")
        }
        if title != res.MovieTitle || !sameDate(date, res.Date) || !sameClock(at, res.Time) {
            return nil, invalid("film, date and time of a seat-mapped booking cannot change")
        }
    } else if err := fillSchedule(res, title, date, at); err != nil {
        return nil, err
    }

    quote := QuotePrice(s.pricing, seats, categories)
    res.SeatCount = seats
    res.SeatCategories = echoCategories(categories)
    res.TotalPrice = quote.Total
    for i := range res.Seats {
        res.Seats[i].Category, res.Seats[i].Price = quote.Seat(i)
    }
    if err := s.reservations.Update(ctx, res); err != nil {
        switch {
        case errors.Is(err, repository.ErrReservationNotFound):
            return nil, ErrBookingNotFound
        case errors.Is(err, repository.ErrAlreadyPaid):
            return nil, ErrAlreadyPaid.withMessage("a paid booking cannot be changed")
        }
        return nil, internal("update booking", err)
    }
    s.publish(ctx, queue.KindUpdated, *res)
    return res, nil
}

// DeleteBooking cancels a booking owned by userID and releases its seats.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID, userID uint64) error {
    res, err := s.owned(ctx, bookingID, userID)
    if err != nil {
        return err
    }
    if err := s.reservations.Delete(ctx, bookingID); err != nil {
        if errors.Is(err, repository.ErrReservationNotFound) {
            return ErrBookingNotFound
        }
        return internal("delete booking", err)
    }
    s.log.Info("booking cancelled",
        zap.Uint64("reservation_id", bookingID),
        zap.Uint64("user_id", userID),
        zap.Int("released_seats", len(res.Seats)))
    s.publish(ctx, queue.KindCancelled, *res)
    return nil
}

// ListBookings returns the user's bookings newest first.
func (s *BookingService) ListBookings(ctx context.Context, userID uint64) ([]model.Reservation, error) {
    list, err := s.reservations.ListByUser(ctx, userID)
    if err != nil {
        return nil, internal("list bookings", err)
    }
    return list, nil
}

// ProcessPayment records a simulated payment.  The amount must equal the
// booking total exactly.
func (s *BookingService) ProcessPayment(ctx context.Context, bookingID, userID uint64, amount decimal.Decimal) (*model.Reservation, error) {
    res, err := s.reservations.GetByID(ctx, bookingID)
    if errors.Is(err, repository.ErrReservationNotFound) || (err == nil && res.UserID != userID) {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, internal("load booking", err)
    }
    if res.Status == model.StatusPaid {
        return nil, ErrAlreadyPaid
    }
    if !amount.Equal(res.TotalPrice) {
        return nil, ErrAmountMismatch.withMessage("payment amount %s does not match the booking total %s",
            amount.StringFixed(2), res.TotalPrice.StringFixed(2))
    }
    ref := "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
    if err := s.reservations.MarkPaid(ctx, bookingID, ref); err != nil {
        switch {
        case errors.Is(err, repository.ErrAlreadyPaid):
            return nil, ErrAlreadyPaid
        case errors.Is(err, repository.ErrReservationNotFound):
            return nil, ErrBookingNotFound
        }
        return nil, internal("record payment", err)
    }
    res.Status = model.StatusPaid
    res.PaymentRef = &ref
    s.log.Info("booking paid",
        zap.Uint64("reservation_id", bookingID),
        zap.String("payment_ref", ref),
        zap.String("amount", amount.StringFixed(2)))
    s.publish(ctx, queue.KindPaid, *res)
    return res, nil
}

// TicketQRCode renders the ticket of a paid booking as a PNG QR code.
func (s *BookingService) TicketQRCode(ctx context.Context, bookingID, userID uint64, size int) ([]byte, error) {
    res, err := s.owned(ctx, bookingID, userID)
    if err != nil {
        return nil, err
    }
    if res.Status != model.StatusPaid || res.PaymentRef == nil {
        return nil, ErrNotPaid
    }
    if size < 128 || size > 1024 {
        size = 256
    }
    png, err := qrcode.Encode(TicketPayload(*res), qrcode.Medium, size)
    if err != nil {
        return nil, internal("encode ticket", err)
    }
    return png, nil
}

// TicketPayload is the text encoded in a ticket QR code.
func TicketPayload(r model.Reservation) string {
    ref := ""
    if r.PaymentRef != nil {
        ref = *r.PaymentRef
    }
    seats := strings.Join(seatLabels(r.Seats), ",")
    if seats == "" {
        seats = fmt.Sprintf("x%d", r.SeatCount)
    }
    return fmt.Sprintf("CINEMAX|%d|%s|%s|%s %s|%s", r.ID, ref, r.MovieTitle, r.Date, r.Time, seats)
}

// owned loads a booking and checks that userID owns it.
func (s *BookingService) owned(ctx context.Context, bookingID, userID uint64) (*model.Reservation, error) {
    res, err := s.reservations.GetByID(ctx, bookingID)
    if errors.Is(err, repository.ErrReservationNotFound) {
        return nil, ErrBookingNotFound
    }
    if err != nil {
        return nil, internal("load booking", err)
    }
    if res.UserID != userID {
        return nil, ErrForbidden
    }
    return res, nil
}

// publish sends an event after commit.  Failures are logged, never
// returned: the booking itself already succeeded.
func (s *BookingService) publish(ctx context.Context, kind string, res model.Reservation) {
    if s.events == nil {
        return
    }
    pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
    defer cancel()
    if err := s.events.Publish(pctx, queue.NewBookingEvent(kind, res, s.now())); err != nil {
        s.log.Warn("booking event not published",
            zap.String("kind", kind),
            zap.Uint64("reservation_id", res.ID),
            zap.Error(err))
    }
}

func fillSchedule(res *model.Reservation, title, date, at string) error {
    var absent []string
    if strings.TrimSpace(title) == "" {
        absent = append(absent, "film_title")
    }
    if strings.TrimSpace(date) == "" {
        absent = append(absent, "film_date")
    }
    if strings.TrimSpace(at) == "" {
        absent = append(absent, "film_time")
    }
    if len(absent) > 0 {
        return missing(absent...)
    }
    day, err := ParseDate(date)
    if err != nil {
        return err
    }
    clock, err := ParseClock(at)
    if err != nil {
        return err
    }
    res.MovieTitle = strings.TrimSpace(title)
    res.Date = day.Format("2006-01-02")
    res.Time = clock
    return nil
}

func echoCategories(in []string) []string {
    out := make([]string, len(in))
    for i, c := range in {
        out[i] = strings.ToLower(strings.TrimSpace(c))
    }
    return out
}

func seatLabels(seats []model.SeatBooking) []string {
    out := make([]string, 0, len(seats))
    for _, s := range seats {
        out = append(out, s.Label())
    }
    return out
}

func sameDate(a, b string) bool {
    da, errA := time.Parse("2006-01-02", a)
    db, errB := time.Parse("2006-01-02", b)
    return errA == nil && errB == nil && da.Equal(db)
}

func sameClock(a, b string) bool {
    ca, errA := ParseClock(a)
    cb, errB := ParseClock(b)
    return errA == nil && errB == nil && ca == cb
}
