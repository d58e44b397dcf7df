package collector

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"InsiderSentinel/internal/model"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// ParseValue parses a dollar amount such as "+$1,450,221", "-$5,000" or
// "($5,000)". Anything unparseable yields zero so it never adds conviction.
func ParseValue(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		v = v.Neg()
	}
	return v
}

func parsePrice(s string) float64 {
	s = strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// readRows reads a headed CSV into lower-cased column maps.
func readRows(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var headers []string
	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if headers == nil {
			headers = rec
			continue
		}
		row := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(rec) {
				row[strings.ToLower(strings.TrimSpace(h))] = strings.TrimSpace(rec[j])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func first(row map[string]string, keys ...string) string {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != "" {
			return v
		}
	}
	return ""
}

// ParseBarsCSV reads date,open,high,low,close,volume rows. Rows without a
// date or close are skipped; the result is sorted ascending.
func ParseBarsCSV(r io.Reader) ([]model.PriceBar, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, fmt.Errorf("read bars csv: %w", err)
	}
	bars := make([]model.PriceBar, 0, len(rows))
	for _, row := range rows {
		d, err := parseDate(first(row, "date", "time", "timestamp"))
		if err != nil {
			continue
		}
		c, err := strconv.ParseFloat(first(row, "close", "adj close"), 64)
		if err != nil || c <= 0 {
			continue
		}
		bar := model.PriceBar{Date: d, Close: c}
		bar.Open, _ = strconv.ParseFloat(first(row, "open"), 64)
		bar.High, _ = strconv.ParseFloat(first(row, "high"), 64)
		bar.Low, _ = strconv.ParseFloat(first(row, "low"), 64)
		bar.Volume, _ = strconv.ParseFloat(first(row, "volume", "vol"), 64)
		if bar.High == 0 {
			bar.High = c
		}
		if bar.Low == 0 {
			bar.Low = c
		}
		bars = append(bars, bar)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}

// ParseInsiderCSV reads date,insider,title,value,price rows. Malformed
// values are kept as zero.
func ParseInsiderCSV(r io.Reader) ([]model.InsiderEvent, error) {
	rows, err := readRows(r)
	if err != nil {
		return nil, fmt.Errorf("read insider csv: %w", err)
	}
	events := make([]model.InsiderEvent, 0, len(rows))
	for _, row := range rows {
		d, err := parseDate(first(row, "trade_date", "trade date", "date"))
		if err != nil {
			continue
		}
		events = append(events, model.InsiderEvent{
			Date:    d,
			Insider: first(row, "insider", "insider name", "name"),
			Title:   first(row, "title", "role"),
			Value:   ParseValue(first(row, "value")),
			Price:   parsePrice(first(row, "price")),
		})
	}
	return events, nil
}

// CSVFetcher serves bars and insider events from per-ticker files:
// {BarsDir}/{SYMBOL}.csv and {InsiderDir}/{SYMBOL}.csv.
type CSVFetcher struct {
	BarsDir    string
	InsiderDir string
}

func (f *CSVFetcher) Name() string { return "csv" }

func openTickerFile(dir, symbol string) (*os.File, error) {
	fh, err := os.Open(filepath.Join(dir, strings.ToUpper(symbol)+".csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return fh, err
}

func (f *CSVFetcher) FetchDailyBars(_ context.Context, symbol string, days int) ([]model.PriceBar, error) {
	fh, err := openTickerFile(f.BarsDir, symbol)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	bars, err := ParseBarsCSV(fh)
	if err != nil {
		return nil, err
	}
	if days > 0 && len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

func (f *CSVFetcher) FetchInsiderEvents(_ context.Context, symbol string) ([]model.InsiderEvent, error) {
	fh, err := openTickerFile(f.InsiderDir, symbol)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return ParseInsiderCSV(fh)
}
