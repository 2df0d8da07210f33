// Package oanda fetches FX price history. The client only shapes
// well-formed Series; alignment and derivation happen downstream.
package oanda

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"FXForge/internal/domain/models"
	pkgcache "FXForge/pkg/cache"
	pkghttp "FXForge/pkg/http"
	applogger "FXForge/pkg/logger"
	"FXForge/pkg/util"
)

// ClientConfig holds the REST client settings.
type ClientConfig struct {
	BaseURL     string        `yaml:"base_url" default:"https://api-fxpractice.oanda.com" validate:"required,url"`
	APIKey      string        `yaml:"api_key" validate:"required"`
	Instruments []string      `yaml:"instruments" validate:"min=1"`
	Granularity string        `yaml:"granularity" default:"D" validate:"oneof=M1 M5 M15 H1 H4 D"`
	Timeout     time.Duration `yaml:"timeout" default:"30s"`
	CacheTTL    time.Duration `yaml:"cache_ttl" default:"6h"`
}

// Client fetches candle history over REST. Fetched payloads are cached by
// (instrument, granularity, window) so repeated runs skip the network.
type Client struct {
	cfg   ClientConfig
	http  *pkghttp.Client
	cache pkgcache.Service
	l     *applogger.Logger
}

// NewClient creates an OANDA candle client.
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
func (c *Client) Name() string { return "oanda" }

type candleMid struct {
	O string `json:"o"`
	H string `json:"h"`
	L string `json:"l"`
	C string `json:"c"`
}

type candle struct {
	Complete bool      `json:"complete"`
	Volume   float64   `json:"volume"`
	Time     time.Time `json:"time"`
	Mid      candleMid `json:"mid"`
}

type candlesResponse struct {
	Instrument  string   `json:"instrument"`
	Granularity string   `json:"granularity"`
	Candles     []candle `json:"candles"`
}

// Fetch returns one OHLCV series per configured instrument. The window is
// truncated to candle boundaries so cache keys stay stable across runs
// started mid-interval.
func (c *Client) Fetch(ctx context.Context, from, to time.Time) ([]*models.Series, error) {
	from, to = util.AlignFromTo(from, to, models.Granularity(c.cfg.Granularity).Step())
	out := make([]*models.Series, 0, len(c.cfg.Instruments))
	for _, instrument := range c.cfg.Instruments {
		s, err := c.fetchInstrument(ctx, instrument, from, to)
		if err != nil {
			return nil, fmt.Errorf("oanda %s: %w", instrument, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *Client) fetchInstrument(ctx context.Context, instrument string, from, to time.Time) (*models.Series, error) {
	key := pkgcache.GenerateKeyWithParams("oanda:candles", instrument, c.cfg.Granularity,
		from.Format("2006-01-02"), to.Format("2006-01-02"))

	var resp candlesResponse
	cached := false
	if c.cache != nil {
		if err := c.cache.Get(ctx, key, &resp); err == nil {
			cached = true
		}
	}
	if !cached {
		if err := c.http.SendAndParse(ctx, &pkghttp.RequestOptions{
			Method: pkghttp.MethodGet,
			URL:    fmt.Sprintf("%s/v3/instruments/%s/candles", c.cfg.BaseURL, instrument),
			Headers: map[string]string{
				"Authorization": "Bearer " + c.cfg.APIKey,
			},
			QueryParams: map[string][]string{
				"granularity": {c.cfg.Granularity},
				"from":        {from.UTC().Format(time.RFC3339)},
				"to":          {to.UTC().Format(time.RFC3339)},
				"price":       {"M"},
			},
		}, &resp); err != nil {
			return nil, fmt.Errorf("fetch candles: %w", err)
		}
		if c.cache != nil {
			_ = c.cache.Set(ctx, key, resp, c.cfg.CacheTTL)
		}
	}

	bars := make([]models.Bar, 0, len(resp.Candles))
	for _, cd := range resp.Candles {
		if !cd.Complete {
			continue
		}
		b, err := parseBar(cd)
		if err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}

	s := &models.Series{
		Name:        seriesName(instrument),
		Source:      c.Name(),
		Granularity: models.Granularity(c.cfg.Granularity),
		FetchedFrom: from,
		FetchedTo:   to,
		Bars:        bars,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if c.l != nil {
		c.l.Info("oanda fetch ok",
			applogger.String("instrument", instrument),
			applogger.String("granularity", c.cfg.Granularity),
			applogger.Int("bars", len(bars)),
			applogger.Bool("cached", cached),
		)
	}
	return s, nil
}

// seriesName maps an OANDA instrument like EUR_USD to the column-friendly
// series name eurusd.
func seriesName(instrument string) string {
	return strings.ToLower(strings.ReplaceAll(instrument, "_", ""))
}

func parseBar(cd candle) (models.Bar, error) {
	o, err1 := strconv.ParseFloat(cd.Mid.O, 64)
	h, err2 := strconv.ParseFloat(cd.Mid.H, 64)
	l, err3 := strconv.ParseFloat(cd.Mid.L, 64)
	cl, err4 := strconv.ParseFloat(cd.Mid.C, 64)
	for _, err := range []error{err1, err2, err3, err4} {
		if err != nil {
			return models.Bar{}, fmt.Errorf("parse candle at %s: %w", cd.Time, err)
		}
	}
	return models.Bar{
		T:     cd.Time.UTC(),
		OHLCV: models.OHLCV{Open: o, High: h, Low: l, Close: cl, Volume: cd.Volume},
	}, nil
}
