package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"FXForge/internal/domain/models"
	pkgch "FXForge/pkg/clickhouse"
	applogger "FXForge/pkg/logger"
)

// CHSink persists feature tables to ClickHouse in long format: one row per
// (time_point, column) pair with a non-marker value. Markers are simply not
// inserted; readers reconstruct them from the gap.
type CHSink struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

var chSchema = []string{
	`CREATE DATABASE IF NOT EXISTS fxforge`,
	`CREATE TABLE IF NOT EXISTS fxforge.features (
        instrument LowCardinality(String),
        time_point Date,
        column     LowCardinality(String),
        source     LowCardinality(String),
        value      Float64,
        inserted_at DateTime DEFAULT now()
    ) ENGINE = ReplacingMergeTree(inserted_at)
    ORDER BY (instrument, column, time_point)`,
	`CREATE TABLE IF NOT EXISTS fxforge.manifests (
        instrument   LowCardinality(String),
        rows         UInt32,
        columns      UInt32,
        from_date    Date,
        to_date      Date,
        generated_at DateTime
    ) ENGINE = MergeTree
    ORDER BY (instrument, generated_at)`,
}

// NewCHSink creates the sink and ensures the schema exists.
func NewCHSink(ctx context.Context, client *pkgch.Client) (*CHSink, error) {
	if err := client.InitSchema(ctx, chSchema); err != nil {
		return nil, err
	}
	return &CHSink{client: client, db: client.DB()}, nil
}

// SetLogger injects a structured logger.
func (s *CHSink) SetLogger(l *applogger.Logger) { s.l = l }

// Write inserts the table's observed cells and the run manifest.
func (s *CHSink) Write(ctx context.Context, table *models.FeatureTable, manifest *models.Manifest) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fxforge.features (instrument, time_point, column, source, value) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}

	inserted := 0
	for _, c := range table.Columns {
		for i, v := range c.Values {
			if models.IsMarker(v) {
				continue
			}
			if _, err := stmt.ExecContext(ctx, manifest.Instrument, table.Index[i], c.Name, string(c.Source), v); err != nil {
				_ = tx.Rollback()
				if s.l != nil {
					s.l.Error("clickhouse feature insert error",
						applogger.String("instrument", manifest.Instrument),
						applogger.String("column", c.Name),
						applogger.Error(err),
					)
				}
				return fmt.Errorf("insert feature cell: %w", err)
			}
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit features: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO fxforge.manifests (instrument, rows, columns, from_date, to_date, generated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		manifest.Instrument, manifest.Rows, manifest.Columns, manifest.From, manifest.To, manifest.GeneratedAt,
	); err != nil {
		return fmt.Errorf("insert manifest: %w", err)
	}

	if s.l != nil {
		s.l.Info("clickhouse write ok",
			applogger.String("instrument", manifest.Instrument),
			applogger.Int("cells", inserted),
			applogger.Int("columns", len(table.Columns)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// Close releases the connection pool.
func (s *CHSink) Close() error { return s.client.Close() }
