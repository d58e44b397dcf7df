// Package signal buckets insider purchases by the trend phase that was active
// when they were made.
package signal

import (
	"time"

	"InsiderSentinel/internal/model"
)

// StaleAfterDays is the calendar-day age after which an idle cluster is dropped.
const StaleAfterDays = 30

// Aggregator is the per-ticker purchase cluster: the rise bucket, the fall
// bucket and the shopping-spree peak. It is never shared between tickers.
type Aggregator struct {
	rise      []model.InsiderEvent
	fall      []model.InsiderEvent
	spreePeak float64
}

// NewAggregator returns an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add files a purchase under the phase active at the time. Sales are ignored.
// UNKNOWN counts as hunting for a rise, the same as FALLING.
func (a *Aggregator) Add(ev model.InsiderEvent, phase model.TrendPhase) bool {
	if !ev.IsPurchase() {
		return false
	}
	if phase == model.PhaseRising {
		a.rise = append(a.rise, ev)
	} else {
		a.fall = append(a.fall, ev)
	}
	if ev.Price > a.spreePeak {
		a.spreePeak = ev.Price
	}
	return true
}

// RiseBucket returns purchases made while the ticker was rising.
func (a *Aggregator) RiseBucket() []model.InsiderEvent { return a.rise }

// FallBucket returns purchases made while the ticker was falling or undecided.
func (a *Aggregator) FallBucket() []model.InsiderEvent { return a.fall }

// SpreePeak is the highest purchase price in the cluster.
func (a *Aggregator) SpreePeak() float64 { return a.spreePeak }

// Empty reports whether both buckets are empty.
func (a *Aggregator) Empty() bool { return len(a.rise) == 0 && len(a.fall) == 0 }

// All returns the union of both buckets.
func (a *Aggregator) All() []model.InsiderEvent {
	out := make([]model.InsiderEvent, 0, len(a.rise)+len(a.fall))
	out = append(out, a.rise...)
	return append(out, a.fall...)
}

// MostRecent returns the date of the latest purchase in either bucket.
func (a *Aggregator) MostRecent() (time.Time, bool) {
	var latest time.Time
	found := false
	for _, bucket := range [][]model.InsiderEvent{a.rise, a.fall} {
		for _, ev := range bucket {
			if !found || ev.Date.After(latest) {
				latest = ev.Date
				found = true
			}
		}
	}
	return latest, found
}

// Clear resets both buckets and the spree peak.
func (a *Aggregator) Clear() {
	a.rise = nil
	a.fall = nil
	a.spreePeak = 0
}

// PurgeStale clears the cluster when its most recent purchase is more than
// StaleAfterDays calendar days before today. Reports whether it cleared.
func (a *Aggregator) PurgeStale(today time.Time) bool {
	latest, ok := a.MostRecent()
	if !ok {
		return false
	}
	if today.Sub(latest) > StaleAfterDays*24*time.Hour {
		a.Clear()
		return true
	}
	return false
}
