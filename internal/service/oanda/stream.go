package oanda

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"FXForge/internal/domain/models"
	applogger "FXForge/pkg/logger"
)

// StreamConfig holds the tick stream settings.
type StreamConfig struct {
	URL            string        `yaml:"url" validate:"required"`
	APIKey         string        `yaml:"api_key" validate:"required"`
	Instruments    []string      `yaml:"instruments" validate:"min=1"`
	ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
	PingInterval   time.Duration `yaml:"ping_interval" default:"15s"`
}

// Stream reads mid-price ticks over a websocket. It feeds the intraday
// path: ticks become bars through a BarBuilder before entering the store.
type Stream struct {
	cfg StreamConfig
	l   *applogger.Logger

	conn      *websocket.Conn
	connected bool
}

// NewStream creates a tick stream.
func NewStream(cfg StreamConfig) *Stream {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 15 * time.Second
	}
	return &Stream{cfg: cfg}
}

// SetLogger injects a structured logger.
func (s *Stream) SetLogger(l *applogger.Logger) { s.l = l }

// Connect establishes the websocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	header := map[string][]string{"Authorization": {"Bearer " + s.cfg.APIKey}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, header)
	if err != nil {
		return fmt.Errorf("oanda stream connect: %w", err)
	}
	s.conn = conn
	s.connected = true
	if s.l != nil {
		s.l.Info("oanda stream connected", applogger.String("url", s.cfg.URL))
	}
	return nil
}

// Subscribe requests price frames for the configured instruments.
func (s *Stream) Subscribe(ctx context.Context) error {
	if s.conn == nil || !s.connected {
		return fmt.Errorf("oanda stream not connected")
	}
	msg := map[string]interface{}{
		"type":        "subscribe",
		"instruments": s.cfg.Instruments,
	}
	if err := s.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

type priceFrame struct {
	Type       string `json:"type"`
	Instrument string `json:"instrument"`
	Time       string `json:"time"`
	Bids       []struct {
		Price string `json:"price"`
	} `json:"bids"`
	Asks []struct {
		Price string `json:"price"`
	} `json:"asks"`
}

// Read streams ticks and errors until ctx is cancelled or the socket fails.
func (s *Stream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	ticks := make(chan *models.Tick, 1024)
	errs := make(chan error, 1)

	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if s.conn == nil {
					errs <- fmt.Errorf("oanda stream conn nil")
					return
				}
				_, b, err := s.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("oanda stream read: %w", err)
					return
				}
				tick, ok := parseTick(b)
				if !ok {
					continue
				}
				select {
				case ticks <- tick:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

func parseTick(b []byte) (*models.Tick, bool) {
	var f priceFrame
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, false
	}
	if f.Type != "PRICE" || len(f.Bids) == 0 || len(f.Asks) == 0 {
		return nil, false
	}
	ts, err := time.Parse(time.RFC3339Nano, f.Time)
	if err != nil {
		return nil, false
	}
	bid, err := strconv.ParseFloat(f.Bids[0].Price, 64)
	if err != nil {
		return nil, false
	}
	ask, err := strconv.ParseFloat(f.Asks[0].Price, 64)
	if err != nil {
		return nil, false
	}
	return &models.Tick{
		Instrument: seriesName(f.Instrument),
		T:          ts.UTC(),
		Bid:        bid,
		Ask:        ask,
	}, true
}

// Reconnect closes and re-establishes the stream.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.cfg.ReconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close shuts the socket down.
func (s *Stream) Close() error {
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}
