package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/cinemax/internal/config"
	"github.com/iliyamo/cinemax/internal/handler"
	"github.com/iliyamo/cinemax/internal/middleware"
)

// Guards bundles the middleware shared by the route groups.
type Guards struct {
	Optional  echo.MiddlewareFunc // resolves a session when present
	Session   echo.MiddlewareFunc // rejects anonymous callers with 401
	Admin     echo.MiddlewareFunc // rejects non-admin callers with 403
	Limit     echo.MiddlewareFunc // per ip/user/route token bucket
	AuthLimit echo.MiddlewareFunc // smaller bucket for login and register
}

// NewGuards builds the session and rate limit middleware.  A nil Redis
// client disables rate limiting.
func NewGuards(auth middleware.Authenticator, rl config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) Guards {
	return Guards{
		Optional:  middleware.OptionalSession(auth, log),
		Session:   middleware.RequireSession(auth, log),
		Admin:     middleware.RequireAdmin(),
		Limit:     middleware.NewTokenBucket(rl, rdb, log),
		AuthLimit: middleware.NewAuthTokenBucket(rl, rdb, log),
	}
}

// RegisterRoutes registers the routes that live outside /api.  At the
// moment it only exposes the health check.
func RegisterRoutes(e *echo.Echo, db handler.Pinger) {
	e.GET("/healthz", handler.Health(db))
}

// API creates the /api group.  Every route in it resolves the optional
// session first so the rate limiter can key on the user.
func API(e *echo.Echo, g Guards) *echo.Group {
	return e.Group("/api", g.Optional, g.Limit)
}

// RegisterAuth registers account and session routes.  Register and login
// draw from the smaller auth bucket.
func RegisterAuth(api *echo.Group, a *handler.AuthHandler, g Guards) {
	api.POST("/register", a.Register, g.AuthLimit)
	api.POST("/login", a.Login, g.AuthLimit)
	// logout works with or without a valid session
	api.POST("/logout", a.Logout)
	api.GET("/user", a.Me, g.Session)
}

// RegisterPublic registers the browse endpoints.  They need no session;
// the catalog listings among them are served through the response cache.
func RegisterPublic(api *echo.Group, p *handler.PublicHandler) {
	api.GET("/movies", p.Movies)
	api.GET("/showtimes", p.MovieShowtimes)
	api.GET("/showtimes/:date", p.ShowtimesOnDate)
	api.GET("/seats/:id", p.Seats)
	api.GET("/prices", p.Prices)
	api.GET("/dates", p.Dates)
	api.GET("/theatres", p.Theatres)
}
