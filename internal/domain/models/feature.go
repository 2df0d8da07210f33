package models

import "time"

// ColumnSource identifies how a feature column was derived.
type ColumnSource string

const (
	SourceRaw       ColumnSource = "raw"
	SourceIndicator ColumnSource = "indicator"
	SourceLag       ColumnSource = "lag"
	SourceRolling   ColumnSource = "rolling"
	SourceCalendar  ColumnSource = "calendar"
)

// FeatureColumn is a single derived or raw column, positionally 1:1 with the
// canonical index. Rows before an indicator's warm-up threshold hold the
// marker, never zero.
type FeatureColumn struct {
	Name   string
	Source ColumnSource
	Values []float64
}

// FeatureTable is the terminal artifact of a run: the canonical index plus
// an ordered set of uniquely named columns. It is immutable after assembly;
// construct it through the assembler only.
type FeatureTable struct {
	Index   Index
	Columns []FeatureColumn

	byName map[string]int
}

// NewFeatureTable builds a table from already-validated columns. The
// assembler is responsible for checking name uniqueness and lengths before
// calling this.
func NewFeatureTable(index Index, cols []FeatureColumn) *FeatureTable {
	byName := make(map[string]int, len(cols))
	for i, c := range cols {
		byName[c.Name] = i
	}
	return &FeatureTable{Index: index, Columns: cols, byName: byName}
}

// Column returns the named column, or nil if absent.
func (t *FeatureTable) Column(name string) *FeatureColumn {
	i, ok := t.byName[name]
	if !ok {
		return nil
	}
	return &t.Columns[i]
}

// ColumnNames returns the column names in table order.
func (t *FeatureTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Rows returns the canonical index length.
func (t *FeatureTable) Rows() int { return len(t.Index) }

// Manifest is the only structured status surfaced to external collaborators
// after a run.
type Manifest struct {
	Instrument  string    `json:"instrument"`
	Rows        int       `json:"rows"`
	Columns     int       `json:"columns"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	Flagged     []string  `json:"flagged_columns,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
