package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/campus-marketplace/internal/handler"
	"github.com/iliyamo/campus-marketplace/internal/middleware"
	"github.com/iliyamo/campus-marketplace/internal/model"
)

// RegisterOwner registers owner-scoped endpoints under /v1/owner.  Any of
// the hostel, mess or gym owner roles is accepted; which bookings a
// caller sees is decided by booking ownership, not by role.
func RegisterOwner(e *echo.Echo, b *handler.OwnerBookingHandler, r *handler.RevenueHandler, jwtSecret string) {
	g := e.Group(
		"/v1/owner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.OwnerRoles...),
	)

	// ---- Bookings ----
	g.GET("/bookings", b.List)
	g.GET("/customers", b.Customers)
	g.PATCH("/bookings/:id/status", b.UpdateStatus)
	g.PATCH("/bookings/:id/payment", b.RecordPayment)

	// ---- Revenue ----
	g.GET("/revenue", r.Summary)
	g.GET("/revenue/export.xlsx", r.Export)
	g.GET("/revenue/statement.pdf", r.Statement)
}
