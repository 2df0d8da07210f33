package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"FXForge/internal/domain/models"
	applogger "FXForge/pkg/logger"
)

const timePointLayout = "2006-01-02"

// CSVStore persists feature tables as wide CSV files. The first column is
// TimePoint formatted as 2006-01-02; markers serialize as the empty token
// so they never collide with a real zero.
type CSVStore struct {
	dir string
	l   *applogger.Logger
}

// NewCSVStore creates a store writing under dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{dir: dir}
}

// SetLogger injects a structured logger.
func (s *CSVStore) SetLogger(l *applogger.Logger) { s.l = l }

// Write persists the table as <instrument>_features.csv.
func (s *CSVStore) Write(ctx context.Context, table *models.FeatureTable, manifest *models.Manifest) error {
	start := time.Now()
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(s.dir, manifest.Instrument+"_features.csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, table); err != nil {
		if s.l != nil {
			s.l.Error("csv write error",
				applogger.String("path", path),
				applogger.Error(err),
			)
		}
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if s.l != nil {
		s.l.Info("csv write ok",
			applogger.String("path", path),
			applogger.Int("rows", table.Rows()),
			applogger.Int("columns", len(table.Columns)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	_ = ctx
	return nil
}

// Close satisfies the sink interface; the store holds no open resources
// between writes.
func (s *CSVStore) Close() error { return nil }

// WriteCSV serializes a feature table to w.
func WriteCSV(w io.Writer, table *models.FeatureTable) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(table.Columns)+1)
	header = append(header, "TimePoint")
	header = append(header, table.ColumnNames()...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	record := make([]string, len(header))
	for i, t := range table.Index {
		record[0] = t.Format(timePointLayout)
		for j, c := range table.Columns {
			record[j+1] = formatValue(c.Values[i])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// ReadCSV parses a feature table previously produced by WriteCSV. Column
// sources are not recorded in the file, so restored columns carry SourceRaw.
func ReadCSV(r io.Reader) (*models.FeatureTable, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read csv: empty file")
	}
	header := records[0]
	if len(header) == 0 || header[0] != "TimePoint" {
		return nil, fmt.Errorf("read csv: first column must be TimePoint")
	}

	rows := len(records) - 1
	index := make(models.Index, rows)
	cols := make([]models.FeatureColumn, len(header)-1)
	for j := range cols {
		cols[j] = models.FeatureColumn{
			Name:   header[j+1],
			Source: models.SourceRaw,
			Values: make([]float64, rows),
		}
	}
	for i, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, fmt.Errorf("read csv: row %d has %d fields, header has %d", i+1, len(rec), len(header))
		}
		ts, err := time.ParseInLocation(timePointLayout, rec[0], time.UTC)
		if err != nil {
			return nil, fmt.Errorf("read csv: row %d: %w", i+1, err)
		}
		index[i] = ts
		for j := range cols {
			v, err := parseValue(rec[j+1])
			if err != nil {
				return nil, fmt.Errorf("read csv: row %d column %q: %w", i+1, cols[j].Name, err)
			}
			cols[j].Values[i] = v
		}
	}
	return models.NewFeatureTable(index, cols), nil
}

func formatValue(v float64) string {
	if models.IsMarker(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseValue(s string) (float64, error) {
	if s == "" {
		return models.Marker(), nil
	}
	return strconv.ParseFloat(s, 64)
}
