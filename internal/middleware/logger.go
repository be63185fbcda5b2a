package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"
)

// RequestLogger writes one structured line per request.  It expects echo's
// RequestID middleware to run first.
func RequestLogger(logger *zerolog.Logger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                c.Error(err)
            }

            res := c.Response()
            ev := logger.Info()
            switch {
            case res.Status >= 500:
                ev = logger.Error().Err(err)
            case res.Status >= 400:
                ev = logger.Warn()
            }
            ev.Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
                Str("method", c.Request().Method).
                Str("path", c.Path()).
                Str("uri", c.Request().RequestURI).
                Int("status", res.Status).
                Int64("bytes", res.Size).
                Dur("latency", time.Since(start)).
                Str("user_id", currentUserID(c)).
                Msg("request")
            return nil
        }
    }
}
