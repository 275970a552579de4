// Package service holds the business logic of the booking service:
// catalog and schedules, the theatre/showtime registry and seat map,
// bookings with pricing and payment, and accounts with sessions.  Services
// depend on small store interfaces implemented by the repository package
// and report failures as *Error values carrying a Kind that the HTTP layer
// maps to a status code.
package service

import (
    "errors"
    "fmt"
    "strings"
)

// Kind classifies an Error for the presentation layer.
type Kind int

const (
    KindInternal Kind = iota
    KindValidation
    KindAuthentication
    KindAuthorization
    KindNotFound
    KindConflict
)

func (k Kind) String() string {
    switch k {
    case KindValidation:
        return "validation"
    case KindAuthentication:
        return "authentication"
    case KindAuthorization:
        return "authorization"
    case KindNotFound:
        return "not_found"
    case KindConflict:
        return "conflict"
    default:
        return "internal"
    }
}

// Error is the error type returned by every service operation.  Two
// errors match under errors.Is when their codes are equal, so callers
// compare against the named values below even when the message was
// specialised.
type Error struct {
    Kind    Kind
    Code    string
    Message string
    // Seats lists the conflicting seats of a seat_taken error.
    Seats []string
    Err   error
}

func (e *Error) Error() string {
    if e.Err != nil && e.Kind == KindInternal {
        return fmt.Sprintf("%s: %v", e.Message, e.Err)
    }
    return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Code.
func (e *Error) Is(target error) bool {
    t, ok := target.(*Error)
    return ok && t.Code != "" && t.Code == e.Code
}

// withMessage returns a copy of e carrying a more specific message.
func (e *Error) withMessage(format string, args ...any) *Error {
    c := *e
    c.Message = fmt.Sprintf(format, args...)
    return &c
}

// Named errors.
var (
    ErrInvalidInput       = &Error{Kind: KindValidation, Code: "invalid_input", Message: "invalid input"}
    ErrMissingField       = &Error{Kind: KindValidation, Code: "missing_field", Message: "missing required field"}
    ErrInvalidDuration    = &Error{Kind: KindValidation, Code: "invalid_duration", Message: "duration must be a positive number of minutes"}
    ErrInvalidCredentials = &Error{Kind: KindAuthentication, Code: "invalid_credentials", Message: "invalid email or password"}
    ErrUnauthenticated    = &Error{Kind: KindAuthentication, Code: "unauthenticated", Message: "not authenticated"}
    ErrForbidden          = &Error{Kind: KindAuthorization, Code: "forbidden", Message: "forbidden"}
    ErrMovieNotFound      = &Error{Kind: KindNotFound, Code: "movie_not_found", Message: "movie not found"}
    ErrTheatreNotFound    = &Error{Kind: KindNotFound, Code: "theatre_not_found", Message: "theatre not found"}
    ErrShowtimeNotFound   = &Error{Kind: KindNotFound, Code: "showtime_not_found", Message: "showtime not found"}
    ErrBookingNotFound    = &Error{Kind: KindNotFound, Code: "booking_not_found", Message: "booking not found"}
    ErrDuplicateEmail     = &Error{Kind: KindConflict, Code: "duplicate_email", Message: "email already registered"}
    ErrDuplicateTitle     = &Error{Kind: KindConflict, Code: "duplicate_title", Message: "a movie with this title already exists"}
    ErrDuplicateShowtime  = &Error{Kind: KindConflict, Code: "duplicate_showtime", Message: "a showtime already exists for this theatre, date and time"}
    ErrSeatTaken          = &Error{Kind: KindConflict, Code: "seat_taken", Message: "seats already booked"}
    ErrAmountMismatch     = &Error{Kind: KindConflict, Code: "amount_mismatch", Message: "payment amount does not match the booking total"}
    ErrAlreadyPaid        = &Error{Kind: KindConflict, Code: "already_paid", Message: "booking already paid"}
    ErrNotPaid            = &Error{Kind: KindConflict, Code: "not_paid", Message: "booking is not paid yet"}
)

func invalid(format string, args ...any) *Error {
    return ErrInvalidInput.withMessage(format, args...)
}

func missing(fields ...string) *Error {
    return ErrMissingField.withMessage("missing required field(s): %s", strings.Join(fields, ", "))
}

// Invalid returns a validation error with the given message.  The HTTP
// layer uses it for malformed request bodies.
func Invalid(msg string) *Error { return ErrInvalidInput.withMessage("%s", msg) }

// MissingFields returns the validation error listing absent fields.
func MissingFields(fields ...string) *Error { return missing(fields...) }

// internal wraps an unexpected failure.  The message shown to clients is
// generic; the cause stays available through Unwrap for logging.
func internal(op string, err error) *Error {
    return &Error{Kind: KindInternal, Code: "internal", Message: op, Err: err}
}

// KindOf returns the Kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
    var e *Error
    if errors.As(err, &e) {
        return e.Kind
    }
    return KindInternal
}
