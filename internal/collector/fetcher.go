package collector

import (
	"context"

	"InsiderSentinel/internal/model"
)

// BarFetcher fetches daily OHLCV bars in ascending date order.
type BarFetcher interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error)
	Name() string
}

// InsiderFetcher fetches insider transactions for a ticker.
type InsiderFetcher interface {
	FetchInsiderEvents(ctx context.Context, symbol string) ([]model.InsiderEvent, error)
	Name() string
}
