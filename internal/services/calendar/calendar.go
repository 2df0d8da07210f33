// Package calendar derives deterministic time features from the canonical
// index. These columns depend on the instant alone, so they are defined on
// every row, observed or not.
package calendar

import (
	"math"
	"time"

	"FXForge/internal/domain/models"
)

// Compute derives the calendar columns for an index.
func Compute(index models.Index) []models.FeatureColumn {
	n := index.Len()
	dow := make([]float64, n)
	dowSin := make([]float64, n)
	dowCos := make([]float64, n)
	month := make([]float64, n)
	monthSin := make([]float64, n)
	monthCos := make([]float64, n)
	quarter := make([]float64, n)
	isMonday := make([]float64, n)
	isFriday := make([]float64, n)
	monthStart := make([]float64, n)
	monthEnd := make([]float64, n)
	quarterEnd := make([]float64, n)

	for i, t := range index {
		d := float64(t.Weekday())
		m := float64(t.Month())
		dow[i] = d
		dowSin[i] = math.Sin(2 * math.Pi * d / 7)
		dowCos[i] = math.Cos(2 * math.Pi * d / 7)
		month[i] = m
		monthSin[i] = math.Sin(2 * math.Pi * m / 12)
		monthCos[i] = math.Cos(2 * math.Pi * m / 12)
		quarter[i] = float64((int(t.Month())-1)/3 + 1)
		isMonday[i] = flag(t.Weekday() == time.Monday)
		isFriday[i] = flag(t.Weekday() == time.Friday)
		monthStart[i] = flag(t.Day() == 1)
		monthEnd[i] = flag(isLastDayOfMonth(t))
		quarterEnd[i] = flag(isLastDayOfMonth(t) && int(t.Month())%3 == 0)
	}

	col := func(name string, vals []float64) models.FeatureColumn {
		return models.FeatureColumn{Name: name, Source: models.SourceCalendar, Values: vals}
	}
	return []models.FeatureColumn{
		col("day_of_week", dow),
		col("day_of_week_sin", dowSin),
		col("day_of_week_cos", dowCos),
		col("month", month),
		col("month_sin", monthSin),
		col("month_cos", monthCos),
		col("quarter", quarter),
		col("is_monday", isMonday),
		col("is_friday", isFriday),
		col("is_month_start", monthStart),
		col("is_month_end", monthEnd),
		col("is_quarter_end", quarterEnd),
	}
}

func isLastDayOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Day() == 1
}

func flag(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
