// Package assemble is the last validation gate before a feature table
// leaves the pipeline. Every column must match the canonical index length
// and carry a unique name; columns below the completeness threshold are
// flagged in the manifest but never dropped.
package assemble

import (
	"time"

	"FXForge/internal/domain/models"
)

// Config tunes the assembler.
type Config struct {
	// MinCompleteness is the minimum fraction of non-marker rows a column
	// needs to avoid being flagged. Zero disables flagging.
	MinCompleteness float64 `yaml:"min_completeness" default:"0.5" validate:"gte=0,lte=1"`
}

// Assembler validates and seals feature columns into a table.
type Assembler struct {
	cfg Config
	now func() time.Time
}

// New creates an assembler.
func New(cfg Config) *Assembler {
	return &Assembler{cfg: cfg, now: time.Now}
}

// Assemble validates the columns against the index and produces the sealed
// table plus its manifest. Order of the input columns is preserved.
func (a *Assembler) Assemble(instrument string, index models.Index, cols []models.FeatureColumn) (*models.FeatureTable, *models.Manifest, error) {
	seen := make(map[string]bool, len(cols))
	var flagged []string
	for _, c := range cols {
		if seen[c.Name] {
			return nil, nil, &models.DuplicateColumnError{Name: c.Name}
		}
		seen[c.Name] = true
		if len(c.Values) != index.Len() {
			return nil, nil, &models.AssemblyError{Column: c.Name, Want: index.Len(), Got: len(c.Values)}
		}
		if a.cfg.MinCompleteness > 0 && completeness(c.Values) < a.cfg.MinCompleteness {
			flagged = append(flagged, c.Name)
		}
	}

	table := models.NewFeatureTable(index, cols)
	from, to := index.Range()
	manifest := &models.Manifest{
		Instrument:  instrument,
		Rows:        index.Len(),
		Columns:     len(cols),
		From:        from,
		To:          to,
		Flagged:     flagged,
		GeneratedAt: a.now().UTC(),
	}
	return table, manifest, nil
}

func completeness(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	observed := 0
	for _, v := range vals {
		if !models.IsMarker(v) {
			observed++
		}
	}
	return float64(observed) / float64(len(vals))
}
