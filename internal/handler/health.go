package handler // declare the package name; contains HTTP handlers

import (
    "context"
    "database/sql"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// Health returns a health-check endpoint for load balancers.  The database
// must answer a ping; Redis is optional and only reported.
func Health(db *sql.DB, rdb *redis.Client) echo.HandlerFunc {
    return func(c echo.Context) error {
        ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
        defer cancel()

        out := echo.Map{"status": "ok", "database": "ok", "redis": "disabled"}
        status := http.StatusOK
        if db == nil || db.PingContext(ctx) != nil {
            out["status"], out["database"] = "degraded", "unreachable"
            status = http.StatusServiceUnavailable
        }
        if rdb != nil {
            out["redis"] = "ok"
            if rdb.Ping(ctx).Err() != nil {
                out["redis"] = "unreachable"
            }
        }
        return c.JSON(status, out)
    }
}
