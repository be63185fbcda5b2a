package middleware

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campus-marketplace/internal/model"
)

// IdentityFrom returns the identity stored by JWTAuth.
func IdentityFrom(c echo.Context) (model.Identity, bool) {
    id, ok := c.Get(ctxIdentity).(model.Identity)
    return id, ok && id.ID != ""
}

// currentUserID returns the caller id for keying, or "anon".
func currentUserID(c echo.Context) string {
    if id, ok := IdentityFrom(c); ok {
        return id.ID
    }
    return "anon"
}
