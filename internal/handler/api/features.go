package api

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"FXForge/internal/domain/models"
	xhttp "FXForge/pkg/http"
	xlogger "FXForge/pkg/logger"
)

// FeaturesHandler serves the manifest and column inventory of the most
// recent pipeline run.
type FeaturesHandler struct {
	logger *xlogger.Logger

	mu       sync.RWMutex
	manifest *models.Manifest
	columns  []ColumnInfo
}

// ColumnInfo is the per-column view exposed over HTTP.
type ColumnInfo struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// NewFeaturesHandler creates the handler. It serves 404s until the first
// run completes.
func NewFeaturesHandler(logger *xlogger.Logger) *FeaturesHandler {
	return &FeaturesHandler{logger: logger}
}

// SetResult publishes a completed run to the handler.
func (h *FeaturesHandler) SetResult(table *models.FeatureTable, manifest *models.Manifest) {
	cols := make([]ColumnInfo, len(table.Columns))
	for i, c := range table.Columns {
		cols[i] = ColumnInfo{Name: c.Name, Source: string(c.Source)}
	}
	h.mu.Lock()
	h.manifest = manifest
	h.columns = cols
	h.mu.Unlock()
}

func (h *FeaturesHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api/v1")
	g.GET("/manifest", h.Manifest)
	g.GET("/columns", h.Columns)
}

func (h *FeaturesHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *FeaturesHandler) Manifest(c echo.Context) error {
	h.mu.RLock()
	m := h.manifest
	h.mu.RUnlock()
	if m == nil {
		return xhttp.NotFoundResponse(c, "no completed run yet")
	}
	return xhttp.SuccessResponse(c, m)
}

// Columns lists columns from the latest run. Supports ?source= to filter by
// provenance and ?limit= to cap the page size.
func (h *FeaturesHandler) Columns(c echo.Context) error {
	h.mu.RLock()
	cols := h.columns
	h.mu.RUnlock()
	if cols == nil {
		return xhttp.NotFoundResponse(c, "no completed run yet")
	}

	if src := c.QueryParam("source"); src != "" {
		filtered := make([]ColumnInfo, 0, len(cols))
		for _, col := range cols {
			if col.Source == src {
				filtered = append(filtered, col)
			}
		}
		cols = filtered
	}
	total := int64(len(cols))
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), len(cols))
	if limit >= 0 && limit < len(cols) {
		cols = cols[:limit]
	}
	return xhttp.ListResponse(c, cols, total)
}
