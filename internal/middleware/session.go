package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/service"
)

// SessionCookie is the HttpOnly cookie carrying the session token.
const SessionCookie = "cinemax_session"

// Authenticator resolves a session token to the caller's identity.
type Authenticator interface {
    Authenticate(ctx context.Context, token string) (*model.Identity, error)
}

// SessionToken returns the raw session token of the request.  The cookie
// wins over an "Authorization: Bearer" header; an empty string means the
// request carries neither.
func SessionToken(c echo.Context) string {
    if ck, err := c.Cookie(SessionCookie); err == nil && ck.Value != "" {
        return ck.Value
    }
    auth := c.Request().Header.Get(echo.HeaderAuthorization)
    if strings.HasPrefix(auth, "Bearer ") {
        return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
    }
    return ""
}

// OptionalSession resolves the session when the request carries one and
// stores the identity for downstream handlers.  Invalid or missing tokens
// leave the request anonymous.
func OptionalSession(auth Authenticator, log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if tok := SessionToken(c); tok != "" {
                id, err := auth.Authenticate(c.Request().Context(), tok)
                switch {
                case err == nil:
                    SetIdentity(c, id)
                case service.KindOf(err) == service.KindInternal:
                    log.Error("session lookup failed", zap.Error(err))
                }
            }
            return next(c)
        }
    }
}

// RequireSession rejects requests without a valid session with 401.  It
// reuses an identity already resolved by OptionalSession.
func RequireSession(auth Authenticator, log *zap.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if IdentityFrom(c) != nil {
                return next(c)
            }
            id, err := auth.Authenticate(c.Request().Context(), SessionToken(c))
            if err != nil {
                if service.KindOf(err) == service.KindInternal {
                    log.Error("session lookup failed", zap.Error(err))
                    return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "internal server error"})
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "not authenticated"})
            }
            SetIdentity(c, id)
            return next(c)
        }
    }
}
