package models

import "fmt"

// InvalidSeriesError reports a malformed input series (ordering or duplicate
// violations, bad bar values). Raised once, at ingestion.
type InvalidSeriesError struct {
	Name   string
	Reason string
}

func (e *InvalidSeriesError) Error() string {
	return fmt.Sprintf("invalid series %q: %s", e.Name, e.Reason)
}

// DuplicateSeriesError reports a second Put of the same series name within
// one run.
type DuplicateSeriesError struct {
	Name string
}

func (e *DuplicateSeriesError) Error() string {
	return fmt.Sprintf("series %q already stored", e.Name)
}

// NotFoundError reports a lookup miss in the series store.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("series %q not found", e.Name)
}

// UnsupportedGranularityError reports an alignment request with no defined
// rule for the source/target granularity pair.
type UnsupportedGranularityError struct {
	Series string
	Source Granularity
	Target Granularity
}

func (e *UnsupportedGranularityError) Error() string {
	return fmt.Sprintf("series %q: no alignment rule from %s to %s", e.Series, e.Source, e.Target)
}

// DuplicateColumnError reports a feature column name collision at assembly.
type DuplicateColumnError struct {
	Name string
}

func (e *DuplicateColumnError) Error() string {
	return fmt.Sprintf("duplicate feature column %q", e.Name)
}

// AssemblyError reports an internal invariant violation: a column whose
// value array does not match the canonical index length.
type AssemblyError struct {
	Column string
	Want   int
	Got    int
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("column %q has %d values, index has %d rows", e.Column, e.Got, e.Want)
}
