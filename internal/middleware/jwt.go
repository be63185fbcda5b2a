package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "net/http"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/campus-marketplace/internal/model"
)

// Context keys set by JWTAuth.
const (
    ctxIdentity = "identity"
    ctxUserID   = "user_id"
)

// JWTAuth returns an Echo middleware that validates a Bearer token issued
// by the identity provider and stores the resolved model.Identity in the
// request context.  The subject claim becomes the identity id and the
// "roles" claim (an array, or a single legacy "role" string) its roles.
func JWTAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get("Authorization")
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            raw := strings.TrimPrefix(auth, "Bearer ")

            tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
                if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
                    return nil, echo.ErrUnauthorized
                }
                return []byte(secret), nil
            }, jwt.WithExpirationRequired())
            if err != nil || !tok.Valid {
                return unauthorized(c, "invalid token")
            }

            claims, ok := tok.Claims.(jwt.MapClaims)
            if !ok {
                return unauthorized(c, "invalid claims")
            }
            sub, _ := claims["sub"].(string)
            if sub == "" {
                return unauthorized(c, "token has no subject")
            }

            id := model.Identity{ID: sub, Roles: rolesFrom(claims)}
            c.Set(ctxIdentity, id)
            c.Set(ctxUserID, id.ID)
            return next(c)
        }
    }
}

func rolesFrom(claims jwt.MapClaims) []string {
    var roles []string
    switch v := claims["roles"].(type) {
    case []interface{}:
        for _, r := range v {
            if s, ok := r.(string); ok && s != "" {
                roles = append(roles, s)
            }
        }
    case string:
        roles = append(roles, v)
    }
    if r, ok := claims["role"].(string); ok && r != "" {
        roles = append(roles, r)
    }
    return roles
}

func unauthorized(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "Unauthorized", "message": msg})
}
