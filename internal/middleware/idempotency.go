package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/binary"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"

    "github.com/iliyamo/campus-marketplace/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
    http.ResponseWriter
    status int
    buf    bytes.Buffer
    size   int64
    limit  int64
}

func (cw *captureWriter) WriteHeader(code int) { cw.status = code; cw.ResponseWriter.WriteHeader(code) }
func (cw *captureWriter) Write(b []byte) (int, error) {
    if remain := cw.limit - cw.size; remain > 0 {
        if int64(len(b)) <= remain {
            cw.buf.Write(b)
        } else {
            cw.buf.Write(b[:remain])
        }
    }
    cw.size += int64(len(b))
    return cw.ResponseWriter.Write(b)
}

// idempotencyKey scopes the client key to the caller and route so two
// users cannot collide on the same header value.
func idempotencyKey(cfg config.IdempotencyConfig, c echo.Context, clientKey string) string {
    tail := strings.Join([]string{currentUserID(c), c.Request().Method, c.Path(), clientKey}, ":")
    sum := sha1.Sum([]byte(tail))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
    hdrJSON, err := json.Marshal(header)
    if err != nil {
        return nil, err
    }
    out := make([]byte, 8+len(hdrJSON)+len(body))
    binary.BigEndian.PutUint32(out[0:4], uint32(status))
    binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
    copy(out[8:8+len(hdrJSON)], hdrJSON)
    copy(out[8+len(hdrJSON):], body)
    return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
    if len(bs) < 8 {
        return 0, nil, nil, false
    }
    status = int(binary.BigEndian.Uint32(bs[0:4]))
    hlen := int(binary.BigEndian.Uint32(bs[4:8]))
    if hlen < 0 || 8+hlen > len(bs) {
        return 0, nil, nil, false
    }
    hdr := make(http.Header)
    if hlen > 0 {
        if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
            return 0, nil, nil, false
        }
    }
    return status, hdr, bs[8+hlen:], true
}

// NewIdempotency replays the stored response of a request that carried the
// same Idempotency-Key header, so a retried booking creation does not
// create a second booking.  Only 2xx responses are stored.  A request
// arriving while the first one with the same key is still running gets
// 409.  Without Redis the middleware is a no-op.
func NewIdempotency(cfg config.IdempotencyConfig, rdb *redis.Client, logger *zerolog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    if logger == nil {
        nop := zerolog.Nop()
        logger = &nop
    }
    maxBody := int64(cfg.MaxBodyBytes)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            clientKey := strings.TrimSpace(c.Request().Header.Get(cfg.Header))
            if clientKey == "" || !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            if len(clientKey) > 255 {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "ValidationError", "message": cfg.Header + " too long", "field": cfg.Header})
            }

            ctx := c.Request().Context()
            key := idempotencyKey(cfg, c, clientKey)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if status, hdr, body, ok := decodePayload(bs); ok {
                    for k, vals := range hdr {
                        if strings.EqualFold(k, "Content-Length") { continue }
                        for _, v := range vals {
                            c.Response().Header().Add(k, v)
                        }
                    }
                    c.Response().Header().Set("Idempotent-Replay", "true")
                    c.Response().WriteHeader(status)
                    if len(body) > 0 {
                        _, _ = c.Response().Write(body)
                    }
                    return nil
                }
            }

            lockKey := key + ":lock"
            acquired, err := rdb.SetNX(ctx, lockKey, "1", cfg.LockTTL).Result()
            if err != nil {
                logger.Warn().Err(err).Msg("idempotency store unavailable, passing through")
                return next(c)
            }
            if !acquired {
                return c.JSON(http.StatusConflict, echo.Map{"error": "Conflict", "message": "a request with this " + cfg.Header + " is still in progress"})
            }
            defer rdb.Del(context.Background(), lockKey)

            cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
            c.Response().Writer = cw

            if err := next(c); err != nil {
                return err
            }
            if cw.status < 200 || cw.status > 299 || cw.size > maxBody {
                return nil
            }

            hdr := make(http.Header, len(c.Response().Header()))
            for k, vals := range c.Response().Header() {
                vv := make([]string, len(vals))
                copy(vv, vals)
                hdr[k] = vv
            }
            payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes())
            if err == nil {
                err = rdb.SetEx(context.Background(), key, payload, cfg.TTL).Err()
            }
            if err != nil {
                logger.Warn().Err(err).Msg("idempotency response not stored")
            }
            return nil
        }
    }
}
