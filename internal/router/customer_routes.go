package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemax/internal/handler"
)

// RegisterCustomer registers the booking endpoints.  All of them require a
// session; ownership of a booking is checked by the booking service.
func RegisterCustomer(api *echo.Group, b *handler.BookingHandler, g Guards) {
	api.POST("/booking", b.Create, g.Session)
	api.GET("/my-bookings", b.Mine, g.Session)
	api.PUT("/booking/:id", b.Update, g.Session)
	api.DELETE("/booking/:id", b.Delete, g.Session)
	api.GET("/booking/:id/ticket.png", b.Ticket, g.Session)
	api.POST("/payment", b.Pay, g.Session)
}
