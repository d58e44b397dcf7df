// Package report summarises batch results and exports closed trades.
package report

import (
	"fmt"
	"sort"
	"time"

	"InsiderSentinel/internal/model"
)

// Summarize aggregates per-ticker results into a run summary. A trade with a
// strictly positive return counts as a win.
func Summarize(runID string, results []model.TickerResult, started, finished time.Time) model.RunSummary {
	sum := model.RunSummary{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: finished,
		Tickers:    len(results),
	}

	var total float64
	for _, r := range results {
		if r.Err != nil {
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Sprintf("%s: %v", r.Symbol, r.Err))
			continue
		}
		for _, t := range r.Trades {
			sum.Trades++
			total += t.ReturnPct
			if t.ReturnPct > 0 {
				sum.Wins++
			}
		}
	}
	if sum.Trades > 0 {
		sum.WinRate = float64(sum.Wins) / float64(sum.Trades) * 100
		sum.AvgReturnPct = total / float64(sum.Trades)
	}
	return sum
}

// Trades flattens the closed trades of all successful tickers, ordered by
// entry date then ticker.
func Trades(results []model.TickerResult) []model.ClosedTrade {
	var out []model.ClosedTrade
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		out = append(out, r.Trades...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].EntryDate.Equal(out[j].EntryDate) {
			return out[i].EntryDate.Before(out[j].EntryDate)
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// ByReason counts trades per exit reason.
func ByReason(trades []model.ClosedTrade) map[model.ExitReason]int {
	out := make(map[model.ExitReason]int)
	for _, t := range trades {
		out[t.Reason]++
	}
	return out
}
