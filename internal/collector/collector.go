package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"InsiderSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.PriceBar
	Events    []model.InsiderEvent
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.PriceBar, error) {
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days), nil
}

func (m *MockFetcher) FetchInsiderEvents(_ context.Context, _ string) ([]model.InsiderEvent, error) {
	return m.Events, nil
}

func generateMockBars(basePrice float64, count int) []model.PriceBar {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	bars := make([]model.PriceBar, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.PriceBar{
			Date:   today.AddDate(0, 0, -(count - i)),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector materialises the simulator inputs of one ticker: daily bars,
// insider transactions and the optional historical-rise table.
type Collector struct {
	Bars     BarFetcher
	Insiders InsiderFetcher
	History  HistoryTable
	Days     int
	Timeout  time.Duration
	log      *zap.Logger
}

// NewCollector creates a new Collector.
func NewCollector(bars BarFetcher, insiders InsiderFetcher, history HistoryTable, days int, timeout time.Duration, log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{Bars: bars, Insiders: insiders, History: history, Days: days, Timeout: timeout, log: log}
}

// Load fetches everything the simulator needs for symbol. A ticker with no
// insider data is simulated without events.
func (c *Collector) Load(ctx context.Context, symbol string) (model.TickerInput, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	in := model.TickerInput{Symbol: symbol}

	bars, err := c.Bars.FetchDailyBars(ctx, symbol, c.Days)
	if err != nil {
		return in, fmt.Errorf("fetch daily bars %s via %s: %w", symbol, c.Bars.Name(), err)
	}
	in.Bars = bars

	if c.Insiders != nil {
		events, err := c.Insiders.FetchInsiderEvents(ctx, symbol)
		switch {
		case errors.Is(err, ErrNoData):
			c.log.Warn("no insider data", zap.String("ticker", symbol), zap.String("source", c.Insiders.Name()))
		case err != nil:
			return in, fmt.Errorf("fetch insider events %s via %s: %w", symbol, c.Insiders.Name(), err)
		default:
			in.Events = events
		}
	}

	if c.History != nil {
		in.History = c.History.Rises(symbol)
	}
	return in, nil
}
