package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinemax/internal/handler"
)

// RegisterAdmin registers catalog management endpoints under /api/admin.
// All routes require a session belonging to an admin.
func RegisterAdmin(api *echo.Group, a *handler.AdminHandler, g Guards) {
	r := api.Group("/admin", g.Session, g.Admin)
	r.POST("/movie", a.CreateMovie)
	r.PUT("/movie/:id", a.UpdateMovie)
	r.PUT("/movie/:id/schedule", a.SetSchedule)
	r.POST("/showtime", a.CreateShowtime)
}
