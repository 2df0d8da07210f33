// Package fred fetches economic observation series. Release calendars are
// irregular, so fetched series carry MONTHLY, QUARTERLY or IRREGULAR
// granularity and are forward-filled downstream.
package fred

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"FXForge/internal/domain/models"
	pkgcache "FXForge/pkg/cache"
	pkghttp "FXForge/pkg/http"
	applogger "FXForge/pkg/logger"
)

// SeriesSpec maps one FRED series id to a local name and granularity.
type SeriesSpec struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Granularity string `yaml:"granularity" default:"IRREGULAR" validate:"oneof=D MONTHLY QUARTERLY IRREGULAR"`
}

// ClientConfig holds the client settings.
type ClientConfig struct {
	BaseURL  string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred" validate:"required,url"`
	APIKey   string        `yaml:"api_key" validate:"required"`
	Series   []SeriesSpec  `yaml:"series" validate:"min=1,dive"`
	Timeout  time.Duration `yaml:"timeout" default:"30s"`
	CacheTTL time.Duration `yaml:"cache_ttl" default:"12h"`
}

// Client fetches observations over REST with payload caching.
type Client struct {
	cfg   ClientConfig
	http  *pkghttp.Client
	cache pkgcache.Service
	l     *applogger.Logger
}

// NewClient creates a FRED observations client.
func NewClient(cfg ClientConfig, cache pkgcache.Service) *Client {
	return &Client{
		cfg:   cfg,
		http:  pkghttp.NewClient(pkghttp.WithTimeout(cfg.Timeout)),
		cache: cache,
	}
}

// SetLogger injects a structured logger.
func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

// Name identifies the source in provenance.
func (c *Client) Name() string { return "fred" }

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

// Fetch returns one scalar series per configured spec.
func (c *Client) Fetch(ctx context.Context, from, to time.Time) ([]*models.Series, error) {
	out := make([]*models.Series, 0, len(c.cfg.Series))
	for _, spec := range c.cfg.Series {
		s, err := c.fetchSeries(ctx, spec, from, to)
		if err != nil {
			return nil, fmt.Errorf("fred %s: %w", spec.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) fetchSeries(ctx context.Context, spec SeriesSpec, from, to time.Time) (*models.Series, error) {
	key := pkgcache.GenerateKeyWithParams("fred:obs", spec.ID,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	var resp observationsResponse
	cached := false
	if c.cache != nil {
		if err := c.cache.Get(ctx, key, &resp); err == nil {
			cached = true
		}
	}
	if !cached {
		if err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodGet,
			URL:    c.cfg.BaseURL + "/series/observations",
			QueryParams: map[string][]string{
				"series_id":         {spec.ID},
				"api_key":           {c.cfg.APIKey},
				"file_type":         {"json"},
				"observation_start": {from.Format("2006-01-02")},
				"observation_end":   {to.Format("2006-01-02")},
			},
		}, &resp); err != nil {
			return nil, fmt.Errorf("fetch observations: %w", err)
		}
		if c.cache != nil {
			_ = c.cache.Set(ctx, key, resp, c.cfg.CacheTTL)
		}
	}

	points, err := parseObservations(resp.Observations)
	if err != nil {
		return nil, err
	}
	s := &models.Series{
		Name:        spec.Name,
		Source:      c.Name(),
		Granularity: models.Granularity(spec.Granularity),
		FetchedFrom: from,
		FetchedTo:   to,
		Points:      points,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if c.l != nil {
		c.l.Info("fred fetch ok",
			applogger.String("series_id", spec.ID),
			applogger.String("name", spec.Name),
			applogger.Int("points", len(points)),
			applogger.Bool("cached", cached),
		)
	}
	return s, nil
}

// parseObservations converts FRED observations to points. The API encodes
// a missing value as the literal ".", which becomes a gap, not a zero.
func parseObservations(obs []observation) ([]models.Point, error) {
	points := make([]models.Point, 0, len(obs))
	for _, o := range obs {
		if o.Value == "." {
			continue
		}
		ts, err := time.ParseInLocation("2006-01-02", o.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse observation date %q: %w", o.Date, err)
		}
		v, err := strconv.ParseFloat(o.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("parse observation value %q at %s: %w", o.Value, o.Date, err)
		}
		points = append(points, models.Point{T: ts, Value: v})
	}
	return points, nil
}
