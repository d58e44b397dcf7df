package model

import "time"

// RunSummary aggregates one batch run.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Tickers      int       `json:"tickers"`
	Failed       int       `json:"failed"`
	Trades       int       `json:"trades"`
	Wins         int       `json:"wins"`
	WinRate      float64   `json:"win_rate"` // %
	AvgReturnPct float64   `json:"avg_return_pct"`
	Errors       []string  `json:"errors,omitempty"`
}

// RunState is persisted between process restarts.
type RunState struct {
	LastRun     *RunSummary `json:"last_run,omitempty"`
	TotalRuns   int         `json:"total_runs"`
	TotalTrades int         `json:"total_trades"`
	LastError   string      `json:"last_error,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
