package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com"

// Source returns daily bars for one symbol over a window.
type Source interface {
	Name() string
	FetchDaily(ctx context.Context, symbol string, w Window) (*TickerSeries, error)
}

// YahooSource implements Source over the Yahoo v8 chart endpoint.
type YahooSource struct {
	BaseURL   string
	Client    *http.Client
	SymbolMap map[string]string // maps display symbol to Yahoo ticker
}

// YahooOption customises a YahooSource.
type YahooOption func(*YahooSource)

// WithBaseURL points the source at another host, e.g. a test server.
func WithBaseURL(base string) YahooOption {
	return func(y *YahooSource) {
		if base != "" {
			y.BaseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient injects a custom client.
func WithHTTPClient(c *http.Client) YahooOption {
	return func(y *YahooSource) {
		if c != nil {
			y.Client = c
		}
	}
}

// WithProxy routes requests through proxyURL when it parses.
func WithProxy(proxyURL string) YahooOption {
	return func(y *YahooSource) {
		if proxyURL == "" {
			return
		}
		if u, err := url.Parse(proxyURL); err == nil {
			y.Client = &http.Client{Transport: &http.Transport{Proxy: http.ProxyURL(u)}}
		}
	}
}

// NewYahooSource builds a source. Request deadlines come from the caller's context.
func NewYahooSource(opts ...YahooOption) *YahooSource {
	y := &YahooSource{
		BaseURL: defaultYahooBaseURL,
		Client:  &http.Client{},
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
		},
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

func (y *YahooSource) Name() string { return "yahoo" }

// yahooSymbol maps class-share dots to Yahoo's dash form (BRK.B -> BRK-B).
func (y *YahooSource) yahooSymbol(symbol string) string {
	if mapped, ok := y.SymbolMap[symbol]; ok {
		return mapped
	}
	return strings.ReplaceAll(symbol, ".", "-")
}

// FetchDaily requests daily bars with adjusted closes for symbol.
func (y *YahooSource) FetchDaily(ctx context.Context, symbol string, w Window) (*TickerSeries, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div,splits&includeAdjustedClose=true",
		y.BaseURL, url.PathEscape(y.yahooSymbol(symbol)), w.Start.Unix(), w.End.Unix())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/history", strings.ToUpper(symbol)))

	resp, err := y.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests") {
		return nil, errors.New("yahoo returned 429: Too Many Requests")
	}
	if strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:") {
		return nil, fmt.Errorf("yahoo returned non-json body: %s", preview(body))
	}

	var yc yahooChartResp
	if err := json.Unmarshal(body, &yc); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo returned %d: %s", resp.StatusCode, preview(body))
		}
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	if yc.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s", yc.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned %d: %s", resp.StatusCode, preview(body))
	}
	return parseChart(symbol, &yc)
}

func parseChart(symbol string, yc *yahooChartResp) (*TickerSeries, error) {
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Timestamp) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, errors.New("no data")
	}
	res := yc.Chart.Result[0]
	quote := res.Indicators.Quote[0]
	adj := quote.Close
	if len(res.Indicators.AdjClose) > 0 && len(res.Indicators.AdjClose[0].AdjClose) > 0 {
		adj = res.Indicators.AdjClose[0].AdjClose
	}
	loc := exchangeLocation(res.Meta.ExchangeTimezoneName, res.Meta.GmtOffset)

	bars := make([]Bar, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		bars = append(bars, Bar{
			Date:     tradingDate(ts, loc),
			Open:     priceAt(quote.Open, i),
			Close:    priceAt(quote.Close, i),
			AdjClose: priceAt(adj, i),
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	bars = dedupeByDate(bars)
	if allMissing(bars) {
		return nil, errors.New("empty bars")
	}
	return &TickerSeries{Symbol: symbol, Bars: bars}, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

// StaticSource serves fixed series, for tests and offline runs.
type StaticSource struct {
	Series map[string]*TickerSeries
	Errs   map[string]error
}

func (s *StaticSource) Name() string { return "static" }

func (s *StaticSource) FetchDaily(ctx context.Context, symbol string, w Window) (*TickerSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := s.Errs[symbol]; ok {
		return nil, err
	}
	ser, ok := s.Series[symbol]
	if !ok {
		return nil, errors.New("no data")
	}
	return ser, nil
}

// SeriesFromPrices builds a series with one bar per day starting at start; open, close
// and adjusted close all take the given price. NaN marks a missing session.
func SeriesFromPrices(symbol string, start time.Time, prices ...float64) *TickerSeries {
	bars := make([]Bar, len(prices))
	for i, p := range prices {
		bars[i] = Bar{Date: start.AddDate(0, 0, i), Open: p, Close: p, AdjClose: p}
	}
	return &TickerSeries{Symbol: symbol, Bars: bars}
}
