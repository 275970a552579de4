package middleware

// identity.go holds the accessors for the authenticated caller stored in
// the Echo context by the session middleware.  Handlers never read the
// raw token; they ask for the Identity.

import (
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/cinemax/internal/model"
)

const identityKey = "identity"

// SetIdentity stores the authenticated caller in the context.
func SetIdentity(c echo.Context, id *model.Identity) { c.Set(identityKey, id) }

// IdentityFrom returns the caller stored by the session middleware, or nil
// for guests.
func IdentityFrom(c echo.Context) *model.Identity {
    id, _ := c.Get(identityKey).(*model.Identity)
    return id
}

// userKey identifies the caller for rate limiting.  It returns "guest"
// when no user is authenticated.
func userKey(c echo.Context) string {
    if id := IdentityFrom(c); id != nil {
        return strconv.FormatUint(id.UserID, 10)
    }
    return "guest"
}
