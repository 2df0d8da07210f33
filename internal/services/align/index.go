package align

import (
	"time"

	"FXForge/internal/domain/models"
)

// BuildDailyIndex returns the gap-free daily canonical index covering
// [from, to] inclusive, at UTC midnight. Both bounds are truncated to day
// precision first.
func BuildDailyIndex(from, to time.Time) models.Index {
	from = truncateDay(from)
	to = truncateDay(to)
	if to.Before(from) {
		return nil
	}
	n := int(to.Sub(from).Hours()/24) + 1
	ix := make(models.Index, 0, n)
	for t := from; !t.After(to); t = t.AddDate(0, 0, 1) {
		ix = append(ix, t)
	}
	return ix
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
