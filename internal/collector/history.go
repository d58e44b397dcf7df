package collector

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"InsiderSentinel/internal/model"
)

// HistoryTable is a precomputed per-ticker table of past rises, loaded from
// YAML of the form:
//
//	ACME:
//	  - growth_pct: 42.5
//	    insider_backed: true
//	    avg_pullback_pct: 3.1
//	    max_pullback_pct: 6.4
type HistoryTable map[string][]model.HistoricalRise

// LoadHistoryTable reads a history table. An empty path yields an empty table.
func LoadHistoryTable(path string) (HistoryTable, error) {
	if path == "" {
		return HistoryTable{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history table: %w", err)
	}
	raw := make(map[string][]model.HistoricalRise)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse history table: %w", err)
	}
	t := make(HistoryTable, len(raw))
	for sym, rises := range raw {
		t[strings.ToUpper(sym)] = rises
	}
	return t, nil
}

// Rises returns the table rows for symbol.
func (t HistoryTable) Rises(symbol string) []model.HistoricalRise {
	return t[strings.ToUpper(symbol)]
}
