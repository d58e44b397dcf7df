// Package recorder persists batch runs, closed trades and trend segments.
package recorder

import "InsiderSentinel/internal/model"

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordRun(run *model.RunSummary) error
	RecordTrades(runID string, trades []model.ClosedTrade) error
	RecordTrends(runID, symbol string, trends []model.CompletedTrendEvent) error
	Close() error
}

// RecordResults stores every ticker's trades and trend segments under runID.
// It keeps going after a failed write and returns the first error.
func RecordResults(r Recorder, runID string, results []model.TickerResult) error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, res := range results {
		if res.Err != nil {
			continue
		}
		keep(r.RecordTrades(runID, res.Trades))
		keep(r.RecordTrends(runID, res.Symbol, res.Trends))
	}
	return firstErr
}
