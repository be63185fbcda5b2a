package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-marketplace/internal/handler"
	"github.com/iliyamo/campus-marketplace/internal/middleware"
	"github.com/iliyamo/campus-marketplace/internal/model"
)

// RegisterStudent registers student-scoped booking endpoints under /v1.
// All routes require a valid JWT carrying the student role.  Booking
// creation additionally runs through the rate limiter and the
// Idempotency-Key replay middleware, in that order.
func RegisterStudent(e *echo.Echo, h *handler.StudentBookingHandler, jwtSecret string, limit, idempotent echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStudent),
	)
	g.POST("/bookings", h.Create, limit, idempotent)
	g.GET("/bookings/mine", h.ListMine)
	g.POST("/bookings/:id/cancel", h.Cancel)
}
