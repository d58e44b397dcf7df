package collector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"InsiderSentinel/internal/model"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+$1,450,221", "1450221"},
		{"$25,000", "25000"},
		{"-$5,000", "-5000"},
		{"($5,000)", "-5000"},
		{"24999.50", "24999.5"},
		{"n/a", "0"},
		{"", "0"},
		{"$1,2x3", "0"},
	}
	for _, tt := range tests {
		got := ParseValue(tt.in)
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseValue(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseBarsCSV(t *testing.T) {
	data := `Date,Open,High,Low,Close,Volume
2024-01-03,10.5,11,10,10.8,1200
2024-01-02,10,10.6,9.9,10.4,1000
bad-date,1,1,1,1,1
2024-01-04,,,,,
2024-01-05,10.8,11.2,10.7,11.1,900
`
	bars, err := ParseBarsCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if !bars[0].Date.Equal(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected ascending order, first bar %s", bars[0].Date)
	}
	if bars[2].Close != 11.1 || bars[2].Volume != 900 {
		t.Errorf("unexpected last bar %+v", bars[2])
	}
}

func TestParseInsiderCSV_MalformedValueIsZero(t *testing.T) {
	data := `date,insider,title,value,price
2024-02-01,Jane Roe,Chief Financial Officer,"+$1,450,221",$12.40
2024-02-02,John Doe,Director,garbage,12.10
`
	events, err := ParseInsiderCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Value.Equal(decimal.NewFromInt(1450221)) || events[0].Price != 12.40 {
		t.Errorf("unexpected first event %+v", events[0])
	}
	if !events[1].Value.IsZero() {
		t.Errorf("malformed value should be zero, got %s", events[1].Value)
	}
}

const openInsiderPage = `<html><body>
<table class="tinytable">
<thead><tr>
<th>X</th><th>Filing&nbsp;Date</th><th>Trade&nbsp;Date</th><th>Ticker</th>
<th>Insider&nbsp;Name</th><th>Title</th><th>Trade&nbsp;Type</th><th>Price</th>
<th>Qty</th><th>Owned</th><th>ΔOwn</th><th>Value</th>
</tr></thead>
<tbody>
<tr><td>M</td><td>2024-03-05 16:01:02</td><td>2024-03-04</td><td>ACME</td>
<td>Roe Jane</td><td>CFO</td><td>P - Purchase</td><td>$12.40</td>
<td>+116,953</td><td>200,000</td><td>+140%</td><td>+$1,450,221</td></tr>
<tr><td></td><td>2024-03-06 09:00:00</td><td>2024-03-05</td><td>ACME</td>
<td>Doe John</td><td>Dir</td><td>S - Sale</td><td>$12.90</td>
<td>-1,000</td><td>5,000</td><td>-17%</td><td>$12,900</td></tr>
</tbody></table>
</body></html>`

func TestParseOpenInsiderHTML(t *testing.T) {
	events, err := ParseOpenInsiderHTML(strings.NewReader(openInsiderPage))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(events))
	}
	p := events[0]
	if p.Insider != "Roe Jane" || p.Title != "CFO" || p.Price != 12.40 {
		t.Errorf("unexpected purchase %+v", p)
	}
	if !p.Value.Equal(decimal.NewFromInt(1450221)) {
		t.Errorf("unexpected value %s", p.Value)
	}
	if !p.Date.Equal(time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected trade date, got %s", p.Date)
	}
	if !events[1].Value.IsNegative() {
		t.Errorf("sale should carry a negative value, got %s", events[1].Value)
	}
}

func TestParseOpenInsiderHTML_NoTable(t *testing.T) {
	_, err := ParseOpenInsiderHTML(strings.NewReader("<html><body><p>nothing</p></body></html>"))
	if !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestParseYahooChart(t *testing.T) {
	body := `{"chart":{"result":[{"timestamp":[1704205800,1704292200,1704378600],
"indicators":{"quote":[{"open":[10,null,11],"high":[10.5,null,11.5],"low":[9.8,null,10.9],
"close":[10.2,null,11.3],"volume":[1000,null,1500]}]}}],"error":null}}`
	bars, err := parseYahooChart([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("expected null bar skipped, got %d bars", len(bars))
	}
	if bars[1].Close != 11.3 || bars[1].Date.Hour() != 0 {
		t.Errorf("unexpected bar %+v", bars[1])
	}
}

func TestRESTFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("symbol") != "ACME" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[{"timestamp":1704292200,"open":1,"high":2,"low":1,"close":1.5,"volume":10},
{"timestamp":1704205800,"open":1,"high":2,"low":1,"close":1.2,"volume":10}]`))
	}))
	defer srv.Close()

	f := NewRESTFetcher(srv.URL, "secret", "")
	bars, err := f.FetchDailyBars(context.Background(), "ACME", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bars) != 2 || bars[0].Close != 1.2 {
		t.Errorf("expected sorted bars, got %+v", bars)
	}
	if _, err := f.FetchDailyBars(context.Background(), "NOPE", 10); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

type memCache struct {
	data map[string][]byte
	sets int
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, ErrCacheMiss
}

func (m *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.data[key] = value
	m.sets++
	return nil
}

type countingFetcher struct {
	MockFetcher
	calls int
}

func (c *countingFetcher) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.PriceBar, error) {
	c.calls++
	return c.MockFetcher.FetchDailyBars(ctx, symbol, days)
}

func TestCachedBarFetcher_ReadThrough(t *testing.T) {
	up := &countingFetcher{MockFetcher: MockFetcher{Price: 50}}
	cache := &memCache{data: map[string][]byte{}}
	f := NewCachedBarFetcher(up, cache, time.Hour, nil)

	first, err := f.FetchDailyBars(context.Background(), "acme", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := f.FetchDailyBars(context.Background(), "ACME", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.calls != 1 || cache.sets != 1 {
		t.Errorf("expected one upstream call and one cache write, got %d/%d", up.calls, cache.sets)
	}
	if len(first) != 30 || len(second) != 30 || !first[29].Date.Equal(second[29].Date) {
		t.Error("cached bars differ from upstream bars")
	}
}

func TestCollector_Load(t *testing.T) {
	ev := model.InsiderEvent{Date: time.Now(), Insider: "A", Value: decimal.NewFromInt(100)}
	mock := &MockFetcher{Price: 20, Events: []model.InsiderEvent{ev}}
	history := HistoryTable{"ACME": {{GrowthPct: 12, AvgPullbackPct: 2}}}

	c := NewCollector(mock, mock, history, 60, time.Second, nil)
	in, err := c.Load(context.Background(), " acme ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Symbol != "ACME" || len(in.Bars) != 60 || len(in.Events) != 1 || len(in.History) != 1 {
		t.Errorf("unexpected input: symbol=%s bars=%d events=%d history=%d",
			in.Symbol, len(in.Bars), len(in.Events), len(in.History))
	}
}

func TestCollector_MissingInsiderFileDegrades(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ACME.csv"), []byte("date,close\n2024-01-02,10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	csvf := &CSVFetcher{BarsDir: dir, InsiderDir: filepath.Join(dir, "none")}
	in, err := NewCollector(csvf, csvf, nil, 0, 0, nil).Load(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("missing insider file should degrade, got %v", err)
	}
	if len(in.Bars) != 1 || len(in.Events) != 0 {
		t.Errorf("unexpected input %+v", in)
	}
	if _, err := csvf.FetchDailyBars(context.Background(), "NOPE", 0); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestLoadHistoryTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	data := `acme:
  - growth_pct: 42.5
    insider_backed: true
    avg_pullback_pct: 3.1
    max_pullback_pct: 6.4
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadHistoryTable(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rises := table.Rises("ACME")
	if len(rises) != 1 || !rises[0].InsiderBacked || rises[0].MaxPullbackPct != 6.4 {
		t.Errorf("unexpected rises %+v", rises)
	}
	if empty, err := LoadHistoryTable(""); err != nil || len(empty) != 0 {
		t.Errorf("empty path should yield an empty table, got %v %v", empty, err)
	}
}
