package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"InsiderSentinel/internal/model"
	"InsiderSentinel/internal/strategy"
)

func TestMetrics_Exposition(t *testing.T) {
	m := New()
	p := strategy.DefaultPolicy()
	m.Decision("ACME", strategy.Decision{Verdict: strategy.VerdictStale, Tier: p.Sprint})
	m.Exit("ACME", model.ClosedTrade{Reason: model.ExitFloorA, Tier: model.TierOmega, ReturnPct: 4})
	m.ObserveRun(&model.RunSummary{Tickers: 3, Failed: 1, FinishedAt: time.Unix(1700000000, 0)})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`sentinel_decisions_total{tier="SPRINT",verdict="stale"} 1`,
		`sentinel_exits_total{reason="PHASE_A_FLOOR",tier="OMEGA"} 1`,
		`sentinel_tickers_total{status="failed"} 1`,
		`sentinel_tickers_total{status="ok"} 2`,
		`sentinel_last_run_timestamp_seconds 1.7e+09`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in exposition", want)
		}
	}
}
