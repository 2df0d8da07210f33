package repository

import (
	"context"
	"fmt"
	"time"

	"FXForge/internal/domain/models"
	pkgkafka "FXForge/pkg/kafka"
	applogger "FXForge/pkg/logger"
)

// KafkaSink publishes each assembled row as one JSON message, keyed by
// instrument so per-instrument ordering survives partitioning, followed by
// the manifest on its own topic.
type KafkaSink struct {
	producer      *pkgkafka.Producer
	rowTopic      string
	manifestTopic string
	l             *applogger.Logger
}

// NewKafkaSink creates the sink.
func NewKafkaSink(producer *pkgkafka.Producer, rowTopic, manifestTopic string) *KafkaSink {
	return &KafkaSink{producer: producer, rowTopic: rowTopic, manifestTopic: manifestTopic}
}

// SetLogger injects a structured logger.
func (s *KafkaSink) SetLogger(l *applogger.Logger) { s.l = l }

type featureRow struct {
	Instrument string             `json:"instrument"`
	TimePoint  string             `json:"time_point"`
	Values     map[string]float64 `json:"values"`
}

// Write publishes all rows in batches, then the manifest.
func (s *KafkaSink) Write(ctx context.Context, table *models.FeatureTable, manifest *models.Manifest) error {
	start := time.Now()
	key := []byte(manifest.Instrument)

	const batchSize = 500
	msgs := make([]pkgkafka.Message, 0, batchSize)
	flush := func() error {
		if len(msgs) == 0 {
			return nil
		}
		if err := s.producer.PublishBatch(ctx, s.rowTopic, msgs); err != nil {
			return fmt.Errorf("publish feature rows: %w", err)
		}
		msgs = msgs[:0]
		return nil
	}

	for i, t := range table.Index {
		row := featureRow{
			Instrument: manifest.Instrument,
			TimePoint:  t.Format(timePointLayout),
			Values:     make(map[string]float64, len(table.Columns)),
		}
		for _, c := range table.Columns {
			if models.IsMarker(c.Values[i]) {
				continue
			}
			row.Values[c.Name] = c.Values[i]
		}
		msgs = append(msgs, pkgkafka.Message{Key: key, Value: row})
		if len(msgs) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	if err := s.producer.Publish(ctx, s.manifestTopic, key, manifest); err != nil {
		return fmt.Errorf("publish manifest: %w", err)
	}
	if s.l != nil {
		s.l.Info("kafka write ok",
			applogger.String("instrument", manifest.Instrument),
			applogger.Int("rows", table.Rows()),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Close flushes and closes the producer.
func (s *KafkaSink) Close() error { return s.producer.Close() }
