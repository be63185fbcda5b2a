package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campus-marketplace/internal/booking"
)

// statusFor maps ledger error kinds to HTTP status codes.
var statusFor = map[string]int{
    "InvalidServiceType": http.StatusBadRequest,
    "ListingNotFound":    http.StatusNotFound,
    "ValidationError":    http.StatusBadRequest,
    "NotFound":           http.StatusNotFound,
    "Forbidden":          http.StatusForbidden,
    "InvalidTransition":  http.StatusConflict,
    "StorageError":       http.StatusInternalServerError,
}

// writeError renders err as {"error": kind, "message": ..., "field": ...}.
// Storage failures and unknown errors never leak their cause.
func writeError(c echo.Context, err error) error {
    kind := booking.Kind(err)
    status, ok := statusFor[kind]
    if !ok {
        kind, status = "StorageError", http.StatusInternalServerError
    }
    body := echo.Map{"error": kind, "message": err.Error()}
    if status == http.StatusInternalServerError {
        body["message"] = "internal storage error"
    }
    var verr *booking.ValidationError
    if errors.As(err, &verr) {
        body["field"] = verr.Field
    }
    return c.JSON(status, body)
}

func badRequest(c echo.Context, field, msg string) error {
    return writeError(c, &booking.ValidationError{Field: field, Msg: msg})
}

func unauthorized(c echo.Context) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": "unauthorized"})
}
