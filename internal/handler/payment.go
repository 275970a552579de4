package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/shopspring/decimal"
)

type paymentReq struct {
    BookingID uint64   `json:"booking_id" validate:"required"`
    Amount    *float64 `json:"amount" validate:"required,gte=0"`
}

// Pay records a simulated payment for one of the caller's bookings.
func (h *BookingHandler) Pay(c echo.Context) error {
    id, err := caller(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    var req paymentReq
    if err := bindValid(c, &req); err != nil {
        return fail(c, h.Log, err)
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Bookings.ProcessPayment(ctx, req.BookingID, id.UserID, decimal.NewFromFloat(*req.Amount))
    if err != nil {
        return fail(c, h.Log, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"success": true, "payment_ref": *res.PaymentRef, "booking": toBookingDTO(*res)})
}

// Ticket renders the QR code of a paid booking.  ?size sets the square
// side in pixels.
func (h *BookingHandler) Ticket(c echo.Context) error {
    id, err := caller(c)
    if err != nil {
        return fail(c, h.Log, err)
    }
    bookingID, err := pathID(c, "id")
    if err != nil {
        return fail(c, h.Log, err)
    }
    size, _ := strconv.Atoi(c.QueryParam("size"))

    ctx, cancel := requestContext(c)
    defer cancel()

    png, err := h.Bookings.TicketQRCode(ctx, bookingID, id.UserID, size)
    if err != nil {
        return fail(c, h.Log, err)
    }
    c.Response().Header().Set("Cache-Control", "private, no-store")
    return c.Blob(http.StatusOK, "image/png", png)
}
