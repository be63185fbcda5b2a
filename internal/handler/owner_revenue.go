package handler

import (
    "bytes"
    "fmt"
    "io"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog"

    "github.com/iliyamo/campus-marketplace/internal/middleware"
    "github.com/iliyamo/campus-marketplace/internal/model"
    "github.com/iliyamo/campus-marketplace/internal/revenue"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RevenueHandler serves owner revenue reports.  Every request recomputes
// the snapshot.
type RevenueHandler struct {
    Aggregator *revenue.Aggregator
    Logger     *zerolog.Logger
}

func NewRevenueHandler(agg *revenue.Aggregator, logger *zerolog.Logger) *RevenueHandler {
    if agg == nil {
        panic("nil aggregator passed to NewRevenueHandler")
    }
    if logger == nil {
        nop := zerolog.Nop()
        logger = &nop
    }
    return &RevenueHandler{Aggregator: agg, Logger: logger}
}

func (h *RevenueHandler) snapshot(c echo.Context) (*model.RevenueSnapshot, error) {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return nil, echo.ErrUnauthorized
    }
    return h.Aggregator.Summary(c.Request().Context(), id.ID)
}

// Summary handles GET /v1/owner/revenue.
func (h *RevenueHandler) Summary(c echo.Context) error {
    snap, err := h.snapshot(c)
    if err == echo.ErrUnauthorized {
        return unauthorized(c)
    }
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, snap)
}

// Export handles GET /v1/owner/revenue/export.xlsx.
func (h *RevenueHandler) Export(c echo.Context) error {
    return h.render(c, mimeXLSX, "revenue-%s.xlsx", revenue.WriteWorkbook)
}

// Statement handles GET /v1/owner/revenue/statement.pdf.
func (h *RevenueHandler) Statement(c echo.Context) error {
    return h.render(c, "application/pdf", "revenue-statement-%s.pdf", revenue.WriteStatement)
}

func (h *RevenueHandler) render(c echo.Context, mime, nameFmt string, write func(io.Writer, *model.RevenueSnapshot) error) error {
    snap, err := h.snapshot(c)
    if err == echo.ErrUnauthorized {
        return unauthorized(c)
    }
    if err != nil {
        return writeError(c, err)
    }
    var buf bytes.Buffer
    if err := write(&buf, snap); err != nil {
        h.Logger.Error().Err(err).Str("owner_id", snap.OwnerID).Str("mime", mime).Msg("render revenue report")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "RenderError", "message": "failed to render report"})
    }
    name := fmt.Sprintf(nameFmt, snap.GeneratedAt.UTC().Format("2006-01"))
    c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
    return c.Blob(http.StatusOK, mime, buf.Bytes())
}
