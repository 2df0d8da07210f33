package fred

import (
	"testing"
	"time"
)

func TestParseObservationsSkipsMissingValues(t *testing.T) {
	points, err := parseObservations([]observation{
		{Date: "2024-01-01", Value: "4.20"},
		{Date: "2024-01-02", Value: "."},
		{Date: "2024-01-03", Value: "4.35"},
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("the dot value must become a gap: got %d points", len(points))
	}
	if points[0].Value != 4.20 || points[1].Value != 4.35 {
		t.Fatalf("values wrong: %v, %v", points[0].Value, points[1].Value)
	}
	want := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	if !points[1].T.Equal(want) {
		t.Fatalf("date wrong: %v", points[1].T)
	}
}

func TestParseObservationsRejectsGarbage(t *testing.T) {
	if _, err := parseObservations([]observation{{Date: "not-a-date", Value: "1"}}); err == nil {
		t.Fatalf("want error for bad date")
	}
	if _, err := parseObservations([]observation{{Date: "2024-01-01", Value: "n/a"}}); err == nil {
		t.Fatalf("want error for bad value")
	}
}
