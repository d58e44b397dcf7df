package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"InsiderSentinel/internal/model"
)

// OpenInsiderFetcher implements InsiderFetcher by scraping the screener
// table of an OpenInsider-style site.
type OpenInsiderFetcher struct {
	BaseURL string
	Client  *http.Client
}

// NewOpenInsiderFetcher creates a fetcher for baseURL (e.g. http://openinsider.com).
func NewOpenInsiderFetcher(baseURL string) *OpenInsiderFetcher {
	return &OpenInsiderFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *OpenInsiderFetcher) Name() string { return "openinsider" }

func (f *OpenInsiderFetcher) FetchInsiderEvents(ctx context.Context, symbol string) ([]model.InsiderEvent, error) {
	q := url.Values{}
	q.Set("s", symbol)
	q.Set("fd", "0") // all filing dates
	q.Set("xp", "1") // purchases
	q.Set("cnt", "1000")
	u := f.BaseURL + "/screener?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openinsider fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openinsider: status %d", resp.StatusCode)
	}
	return ParseOpenInsiderHTML(resp.Body)
}

func normaliseHeader(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// ParseOpenInsiderHTML extracts transactions from the first table whose
// header carries "trade date" and "value" columns. Rows that are not
// purchases keep their (negative) sign so callers can drop them.
func ParseOpenInsiderHTML(r io.Reader) ([]model.InsiderEvent, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var events []model.InsiderEvent
	found := false
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols := make(map[string]int)
		table.Find("tr").First().Find("th").Each(func(i int, th *goquery.Selection) {
			cols[normaliseHeader(th.Text())] = i
		})
		if _, ok := cols["trade date"]; !ok {
			return true
		}
		if _, ok := cols["value"]; !ok {
			return true
		}
		found = true

		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("td")
			if cells.Length() == 0 {
				return
			}
			cell := func(name string) string {
				i, ok := cols[name]
				if !ok || i >= cells.Length() {
					return ""
				}
				return strings.TrimSpace(strings.ReplaceAll(cells.Eq(i).Text(), "\u00a0", " "))
			}
			d, err := parseDate(cell("trade date"))
			if err != nil {
				return
			}
			value := ParseValue(cell("value"))
			if tt := strings.ToUpper(cell("trade type")); tt != "" && !strings.HasPrefix(tt, "P") && value.IsPositive() {
				value = value.Neg()
			}
			events = append(events, model.InsiderEvent{
				Date:    d,
				Insider: cell("insider name"),
				Title:   cell("title"),
				Value:   value,
				Price:   parsePrice(cell("price")),
			})
		})
		return false
	})
	if !found {
		return nil, fmt.Errorf("openinsider: transaction table %w", ErrNoData)
	}
	return events, nil
}
