package models

import "time"

// Tick is a single streamed quote from a price stream collaborator.
// Ticks never enter the feature engine directly; a bar builder folds them
// into intraday Series first.
type Tick struct {
	Instrument string
	T          time.Time
	Bid        float64
	Ask        float64
}

// Mid returns the bid/ask midpoint.
func (t Tick) Mid() float64 { return (t.Bid + t.Ask) / 2 }
