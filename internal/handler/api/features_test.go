package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"FXForge/internal/domain/models"
)

func testTable() (*models.FeatureTable, *models.Manifest) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	index := models.Index{from, from.AddDate(0, 0, 1)}
	table := models.NewFeatureTable(index, []models.FeatureColumn{
		{Name: "close", Source: models.SourceRaw, Values: []float64{1.1, 1.2}},
		{Name: "rsi_14", Source: models.SourceIndicator, Values: []float64{models.Marker(), 55}},
	})
	manifest := &models.Manifest{Instrument: "eurusd", Rows: 2, Columns: 2, From: index[0], To: index[1]}
	return table, manifest
}

func TestManifestBeforeFirstRun(t *testing.T) {
	h := NewFeaturesHandler(nil)
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/manifest", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var body struct {
		Status int `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusNotFound {
		t.Fatalf("want envelope status 404, got %d", body.Status)
	}
}

func TestManifestAndColumnsAfterRun(t *testing.T) {
	h := NewFeaturesHandler(nil)
	h.SetResult(testTable())
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/manifest", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var manifestResp struct {
		Data models.Manifest `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &manifestResp); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if manifestResp.Data.Instrument != "eurusd" || manifestResp.Data.Columns != 2 {
		t.Fatalf("manifest wrong: %+v", manifestResp.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/columns", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var colsResp struct {
		Data struct {
			Rows  []ColumnInfo `json:"rows"`
			Total int64        `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &colsResp); err != nil {
		t.Fatalf("decode columns: %v", err)
	}
	if colsResp.Data.Total != 2 || colsResp.Data.Rows[1].Source != "indicator" {
		t.Fatalf("columns wrong: %+v", colsResp.Data)
	}
}

func TestColumnsFilterAndLimit(t *testing.T) {
	h := NewFeaturesHandler(nil)
	h.SetResult(testTable())
	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/columns?source=indicator", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var colsResp struct {
		Data struct {
			Rows  []ColumnInfo `json:"rows"`
			Total int64        `json:"total"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &colsResp); err != nil {
		t.Fatalf("decode columns: %v", err)
	}
	if colsResp.Data.Total != 1 || colsResp.Data.Rows[0].Name != "rsi_14" {
		t.Fatalf("source filter wrong: %+v", colsResp.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/columns?limit=1", nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	colsResp.Data.Rows = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &colsResp); err != nil {
		t.Fatalf("decode columns: %v", err)
	}
	if len(colsResp.Data.Rows) != 1 || colsResp.Data.Total != 2 {
		t.Fatalf("limit wrong: rows=%d total=%d", len(colsResp.Data.Rows), colsResp.Data.Total)
	}
}

func TestHealth(t *testing.T) {
	h := NewFeaturesHandler(nil)
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: want 200, got %d", rec.Code)
	}
}
