package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireAdmin lets only administrators through.  It must run after
// RequireSession; a missing identity is answered with 401, a non-admin
// caller with 403.
func RequireAdmin() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := IdentityFrom(c)
            if id == nil {
                return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "not authenticated"})
            }
            if !id.IsAdmin {
                return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "forbidden"})
            }
            return next(c)
        }
    }
}
