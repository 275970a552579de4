package handler

import (
    "net/http"

    "github.com/goccy/go-json"
    "github.com/labstack/echo/v4"
)

// JSONSerializer is the echo.JSONSerializer backed by goccy/go-json.
type JSONSerializer struct{}

// Serialize writes i as JSON, indented when indent is set.
func (JSONSerializer) Serialize(c echo.Context, i any, indent string) error {
    enc := json.NewEncoder(c.Response())
    if indent != "" {
        enc.SetIndent("", indent)
    }
    return enc.Encode(i)
}

// Deserialize decodes the request body into i.
func (JSONSerializer) Deserialize(c echo.Context, i any) error {
    err := json.NewDecoder(c.Request().Body).Decode(i)
    if ute, ok := err.(*json.UnmarshalTypeError); ok {
        return echo.NewHTTPError(http.StatusBadRequest, "unmarshal type error: expected="+ute.Type.String()+", field="+ute.Field).SetInternal(err)
    }
    if se, ok := err.(*json.SyntaxError); ok {
        return echo.NewHTTPError(http.StatusBadRequest, "syntax error: "+se.Error()).SetInternal(err)
    }
    return err
}
