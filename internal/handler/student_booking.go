package handler

// Student endpoints: create a booking, list own bookings and cancel a
// pending one.  JWTAuth and RequireRole(student) run before these.

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campus-marketplace/internal/booking"
    "github.com/iliyamo/campus-marketplace/internal/middleware"
    "github.com/iliyamo/campus-marketplace/internal/model"
)

// StudentBookingHandler serves the student side of the booking ledger.
type StudentBookingHandler struct {
    Ledger *booking.Ledger
}

func NewStudentBookingHandler(ledger *booking.Ledger) *StudentBookingHandler {
    if ledger == nil {
        panic("nil ledger passed to NewStudentBookingHandler")
    }
    return &StudentBookingHandler{Ledger: ledger}
}

// createBookingRequest is the POST /v1/bookings body.  Dates accept either
// RFC 3339 timestamps or plain YYYY-MM-DD.
type createBookingRequest struct {
    ServiceType    string `json:"serviceType"`
    ServiceID      string `json:"serviceId"`
    BookingDetails struct {
        CheckInDate            string `json:"checkInDate"`
        StartDate              string `json:"startDate"`
        Duration               string `json:"duration"`
        AdditionalRequirements string `json:"additionalRequirements"`
    } `json:"bookingDetails"`
}

// Create handles POST /v1/bookings and returns 201 with the new booking.
func (h *StudentBookingHandler) Create(c echo.Context) error {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return unauthorized(c)
    }
    var req createBookingRequest
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "body", "invalid JSON body")
    }
    b, err := h.Ledger.Create(c.Request().Context(), booking.CreateRequest{
        StudentID:   id.ID,
        ServiceType: req.ServiceType,
        ServiceID:   strings.TrimSpace(req.ServiceID),
        Details: model.BookingDetails{
            Duration:               strings.TrimSpace(req.BookingDetails.Duration),
            AdditionalRequirements: strings.TrimSpace(req.BookingDetails.AdditionalRequirements),
        },
        Dates: booking.RawDates{
            CheckInDate: req.BookingDetails.CheckInDate,
            StartDate:   req.BookingDetails.StartDate,
        },
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, b)
}

// ListMine handles GET /v1/bookings/mine.
func (h *StudentBookingHandler) ListMine(c echo.Context) error {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return unauthorized(c)
    }
    items, err := h.Ledger.ListForStudent(c.Request().Context(), id.ID)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

// Cancel handles POST /v1/bookings/:id/cancel.
func (h *StudentBookingHandler) Cancel(c echo.Context) error {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return unauthorized(c)
    }
    b, err := h.Ledger.Cancel(c.Request().Context(), id.ID, c.Param("id"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, b)
}
