package middleware // middleware provides shared request processing for handlers

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// RequireRole returns a middleware that lets the request through when the
// authenticated identity carries at least one of roles.  It must run
// after JWTAuth; requests without an identity are rejected as well.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := IdentityFrom(c)
            if !ok || !id.HasRole(roles...) {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden", "message": "role not permitted"})
            }
            return next(c)
        }
    }
}
