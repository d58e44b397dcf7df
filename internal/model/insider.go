package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InsiderEvent is a single Form-4 style insider transaction.
// Value is signed: purchases are positive, sales negative. A value that
// could not be parsed is carried as zero.
type InsiderEvent struct {
	Date    time.Time
	Insider string
	Title   string
	Value   decimal.Decimal
	Price   float64
}

// IsPurchase reports whether the event is a purchase record (zero-valued
// records are kept so they can be counted, but never add conviction).
func (e InsiderEvent) IsPurchase() bool {
	return !e.Value.IsNegative()
}

// InsiderKey normalises the insider name so the same person filing under
// slightly different casing counts once.
func (e InsiderEvent) InsiderKey() string {
	return strings.ToLower(strings.Join(strings.Fields(e.Insider), " "))
}
