package model

import "time"

// PriceBar represents a single daily candlestick bar.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// TickerInput holds everything the simulator needs for one ticker.
// Bars must be ascending by date; Events may be in any order.
type TickerInput struct {
	Symbol  string
	Bars    []PriceBar
	Events  []InsiderEvent
	History []HistoricalRise // optional precomputed rise table
}
