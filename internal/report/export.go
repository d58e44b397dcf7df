package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/tidwall/pretty"

	"InsiderSentinel/internal/model"
)

const dateLayout = "2006-01-02"

var csvHeader = []string{
	"ticker",
	"entry_date",
	"entry_price",
	"exit_date",
	"exit_price",
	"days_held",
	"return_pct",
	"reason",
	"tier",
	"scenario",
	"target_price",
}

// tradeRecord is the exported shape of a closed trade. Prices and returns
// are rounded decimals so reports diff cleanly between runs.
type tradeRecord struct {
	Ticker      string          `json:"ticker"`
	EntryDate   string          `json:"entry_date"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	ExitDate    string          `json:"exit_date"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	DaysHeld    int             `json:"days_held"`
	ReturnPct   decimal.Decimal `json:"return_pct"`
	Reason      string          `json:"reason"`
	Tier        string          `json:"tier"`
	Scenario    string          `json:"scenario"`
	TargetPrice decimal.Decimal `json:"target_price"`
}

func round(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

func toRecord(t model.ClosedTrade) tradeRecord {
	return tradeRecord{
		Ticker:      t.Ticker,
		EntryDate:   t.EntryDate.Format(dateLayout),
		EntryPrice:  round(t.EntryPrice, 4),
		ExitDate:    t.ExitDate.Format(dateLayout),
		ExitPrice:   round(t.ExitPrice, 4),
		DaysHeld:    t.DaysHeld,
		ReturnPct:   round(t.ReturnPct, 2),
		Reason:      string(t.Reason),
		Tier:        string(t.Tier),
		Scenario:    string(t.Scenario),
		TargetPrice: round(t.TargetPrice, 4),
	}
}

// WriteCSV writes trades as CSV with a header row.
func WriteCSV(w io.Writer, trades []model.ClosedTrade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, t := range trades {
		r := toRecord(t)
		row := []string{
			r.Ticker,
			r.EntryDate,
			r.EntryPrice.String(),
			r.ExitDate,
			r.ExitPrice.String(),
			strconv.Itoa(r.DaysHeld),
			r.ReturnPct.StringFixed(2),
			r.Reason,
			r.Tier,
			r.Scenario,
			r.TargetPrice.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row for %s: %w", t.Ticker, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonReport struct {
	Summary jsonSummary   `json:"summary"`
	Trades  []tradeRecord `json:"trades"`
}

type jsonSummary struct {
	RunID        string          `json:"run_id"`
	StartedAt    string          `json:"started_at"`
	FinishedAt   string          `json:"finished_at"`
	Tickers      int             `json:"tickers"`
	Failed       int             `json:"failed"`
	Trades       int             `json:"trades"`
	Wins         int             `json:"wins"`
	WinRate      decimal.Decimal `json:"win_rate"`
	AvgReturnPct decimal.Decimal `json:"avg_return_pct"`
	Errors       []string        `json:"errors,omitempty"`
}

// MarshalJSON renders the summary and trades as indented JSON.
func MarshalJSON(sum model.RunSummary, trades []model.ClosedTrade) ([]byte, error) {
	rep := jsonReport{
		Summary: jsonSummary{
			RunID:        sum.RunID,
			StartedAt:    sum.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
			FinishedAt:   sum.FinishedAt.UTC().Format("2006-01-02T15:04:05Z"),
			Tickers:      sum.Tickers,
			Failed:       sum.Failed,
			Trades:       sum.Trades,
			Wins:         sum.Wins,
			WinRate:      round(sum.WinRate, 2),
			AvgReturnPct: round(sum.AvgReturnPct, 2),
			Errors:       sum.Errors,
		},
		Trades: make([]tradeRecord, 0, len(trades)),
	}
	for _, t := range trades {
		rep.Trades = append(rep.Trades, toRecord(t))
	}
	data, err := json.Marshal(rep)
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return pretty.Pretty(data), nil
}

// WriteFiles writes trades_<runID>.csv and report_<runID>.json into dir and
// returns both paths.
func WriteFiles(dir string, sum model.RunSummary, trades []model.ClosedTrade) (string, string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", fmt.Errorf("create report dir: %w", err)
	}

	csvPath := filepath.Join(dir, fmt.Sprintf("trades_%s.csv", sum.RunID))
	f, err := os.Create(csvPath)
	if err != nil {
		return "", "", fmt.Errorf("create csv: %w", err)
	}
	if err := WriteCSV(f, trades); err != nil {
		f.Close()
		return "", "", err
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("close csv: %w", err)
	}

	data, err := MarshalJSON(sum, trades)
	if err != nil {
		return "", "", err
	}
	jsonPath := filepath.Join(dir, fmt.Sprintf("report_%s.json", sum.RunID))
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return "", "", fmt.Errorf("write json: %w", err)
	}
	return csvPath, jsonPath, nil
}
