package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/campus-marketplace/internal/handler"
)

// RegisterRoutes registers routes that do not require authentication: the
// health check and, when enabled, the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB, rdb *redis.Client, metricsEnabled bool) {
	e.GET("/healthz", handler.Health(db, rdb))
	if metricsEnabled {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
}
