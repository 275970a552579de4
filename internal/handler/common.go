package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/cinemax/internal/middleware"
    "github.com/iliyamo/cinemax/internal/model"
    "github.com/iliyamo/cinemax/internal/service"
)

// requestTimeout bounds the storage work of a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusOf maps a service error kind to its HTTP status.  Conflicts are
// reported as 400 like validation failures.
func statusOf(k service.Kind) int {
    switch k {
    case service.KindValidation, service.KindConflict:
        return http.StatusBadRequest
    case service.KindAuthentication:
        return http.StatusUnauthorized
    case service.KindAuthorization:
        return http.StatusForbidden
    case service.KindNotFound:
        return http.StatusNotFound
    default:
        return http.StatusInternalServerError
    }
}

// fail writes err as {success:false, error}.  Internal failures get an
// opaque message; their cause is logged with the request id.
func fail(c echo.Context, log *zap.Logger, err error) error {
    var se *service.Error
    if !errors.As(err, &se) || se.Kind == service.KindInternal {
        log.Error("request failed",
            zap.String("method", c.Request().Method),
            zap.String("path", c.Path()),
            zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
            zap.Error(err))
        return c.JSON(http.StatusInternalServerError, echo.Map{"success": false, "error": "internal server error"})
    }
    body := echo.Map{"success": false, "error": se.Message}
    if len(se.Seats) > 0 {
        body["seats"] = se.Seats
    }
    return c.JSON(statusOf(se.Kind), body)
}

// bindValid binds the request into dst and runs the registered validator.
func bindValid(c echo.Context, dst any) error {
    if err := c.Bind(dst); err != nil {
        return service.Invalid("invalid request body")
    }
    return c.Validate(dst)
}

// caller returns the authenticated identity or the Unauthenticated error.
func caller(c echo.Context) (*model.Identity, error) {
    id := middleware.IdentityFrom(c)
    if id == nil {
        return nil, service.ErrUnauthenticated
    }
    return id, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || id == 0 {
        return 0, service.Invalid("invalid " + name)
    }
    return id, nil
}
