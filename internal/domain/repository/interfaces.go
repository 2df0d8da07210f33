package repository

import (
	"context"
	"time"

	"FXForge/internal/domain/models"
)

// SeriesSource is a data-source collaborator. Implementations own network
// access, authentication, retries and rate limits; the engine only requires
// the returned series to be well-formed and strictly time-ordered.
type SeriesSource interface {
	// Name identifies the source in logs and provenance.
	Name() string

	// Fetch returns the source's series for the given window.
	Fetch(ctx context.Context, from, to time.Time) ([]*models.Series, error)
}

// FeatureSink receives the assembled table and manifest at the end of a run.
type FeatureSink interface {
	Write(ctx context.Context, table *models.FeatureTable, manifest *models.Manifest) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordSeriesAligned(name string)
	RecordColumnsBuilt(n int)
	RecordRunDuration(seconds float64)
	RecordError(kind string)
}
