package handler

import (
    "errors"
    "fmt"
    "reflect"
    "strings"

    "github.com/go-playground/validator/v10"

    "github.com/iliyamo/cinemax/internal/service"
)

// RequestValidator adapts validator/v10 to echo.Validator.  Failures are
// reported as service validation errors named after the JSON fields.
type RequestValidator struct {
    v *validator.Validate
}

// NewRequestValidator returns a validator that reports JSON field names.
func NewRequestValidator() *RequestValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
        if name == "-" {
            return ""
        }
        return name
    })
    return &RequestValidator{v: v}
}

// Validate implements echo.Validator.
func (rv *RequestValidator) Validate(i any) error {
    err := rv.v.Struct(i)
    if err == nil {
        return nil
    }
    var ves validator.ValidationErrors
    if !errors.As(err, &ves) {
        return service.Invalid("invalid request body")
    }
    var absent []string
    for _, fe := range ves {
        if fe.Tag() == "required" {
            absent = append(absent, fe.Field())
        }
    }
    if len(absent) > 0 {
        return service.MissingFields(absent...)
    }
    return service.Invalid(describe(ves[0]))
}

func describe(fe validator.FieldError) string {
    switch fe.Tag() {
    case "email":
        return "invalid email address"
    case "min", "gte":
        return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
    case "max", "lte":
        return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
    case "url":
        return fmt.Sprintf("%s must be a URL", fe.Field())
    default:
        return fmt.Sprintf("invalid %s", fe.Field())
    }
}
