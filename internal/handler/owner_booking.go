package handler

// Owner endpoints over the booking ledger.  Owners only ever see and
// change bookings whose owner is the caller; the ledger enforces it.

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campus-marketplace/internal/booking"
    "github.com/iliyamo/campus-marketplace/internal/middleware"
    "github.com/iliyamo/campus-marketplace/internal/model"
)

// OwnerBookingHandler serves the owner side of the booking ledger.
type OwnerBookingHandler struct {
    Ledger *booking.Ledger
}

func NewOwnerBookingHandler(ledger *booking.Ledger) *OwnerBookingHandler {
    if ledger == nil {
        panic("nil ledger passed to NewOwnerBookingHandler")
    }
    return &OwnerBookingHandler{Ledger: ledger}
}

// List handles GET /v1/owner/bookings with an optional ?status= filter.
func (h *OwnerBookingHandler) List(c echo.Context) error {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return unauthorized(c)
    }
    var status *model.BookingStatus
    if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" {
        s := model.BookingStatus(strings.ToLower(raw))
        status = &s
    }
    items, err := h.Ledger.ListForOwner(c.Request().Context(), id.ID, status)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Customers handles GET /v1/owner/customers: accepted bookings with
// student details.
func (h *OwnerBookingHandler) Customers(c echo.Context) error {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return unauthorized(c)
    }
    items, err := h.Ledger.ListAcceptedCustomers(c.Request().Context(), id.ID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// UpdateStatus handles PATCH /v1/owner/bookings/:id/status with body
// {"status": "accepted"|"rejected"}.
func (h *OwnerBookingHandler) UpdateStatus(c echo.Context) error {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return unauthorized(c)
    }
    var body struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&body); err != nil {
        return badRequest(c, "body", "invalid JSON body")
    }
    target := model.BookingStatus(strings.ToLower(strings.TrimSpace(body.Status)))
    b, err := h.Ledger.UpdateStatus(c.Request().Context(), id.ID, c.Param("id"), target)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}

// RecordPayment handles PATCH /v1/owner/bookings/:id/payment, marking the
// booking paid.
func (h *OwnerBookingHandler) RecordPayment(c echo.Context) error {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return unauthorized(c)
    }
    b, err := h.Ledger.RecordPayment(c.Request().Context(), id.ID, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}
