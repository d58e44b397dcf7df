package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"InsiderSentinel/internal/runstate"
)

func writeFixture(t *testing.T, reportDir string) (cfgPath, statePath string) {
	t.Helper()
	dir := t.TempDir()
	barsDir := filepath.Join(dir, "bars")
	if err := os.MkdirAll(barsDir, 0755); err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume\n")
	for i := 0; i < 40; i++ {
		c := 10 + float64(i%5)*0.1
		d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,1000\n", d.Format("2006-01-02"), c, c, c, c)
	}
	if err := os.WriteFile(filepath.Join(barsDir, "ACME.csv"), []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}

	statePath = filepath.Join(dir, "state.json")
	cfg := fmt.Sprintf(`tickers: [ACME]
data_source:
  provider: csv
  bars_dir: %s
insider:
  provider: none
database:
  sqlite_path: %s
report:
  dir: %s
state_file: %s
`, barsDir, filepath.Join(dir, "db", "sentinel.db"), reportDir, statePath)
	cfgPath = filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return cfgPath, statePath
}

func TestRun_OnceSucceeds(t *testing.T) {
	cfgPath, statePath := writeFixture(t, t.TempDir())
	if code := run(cfgPath, true, zap.NewNop()); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	st, err := runstate.LoadState(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if st.TotalRuns != 1 || st.LastRun == nil || st.LastRun.Tickers != 1 {
		t.Errorf("unexpected state: %+v", st)
	}
}

func TestRun_OnceFailureReturnsCode(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath, statePath := writeFixture(t, filepath.Join(blocker, "reports"))

	if code := run(cfgPath, true, zap.NewNop()); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	st, err := runstate.LoadState(statePath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(st.LastError, "write report") {
		t.Errorf("expected report failure recorded, got %q", st.LastError)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("TICKERS", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("tickers: []\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if code := run(path, true, zap.NewNop()); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}
