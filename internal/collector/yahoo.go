package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"
	"time"

	"TradeIdeas/internal/model"
	"TradeIdeas/internal/transport"
)

// DefaultYahooBaseURL is the public query host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// YahooFetcher implements Fetcher using Yahoo Finance public API.
type YahooFetcher struct {
	Client    *transport.Client
	BaseURL   string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(client *transport.Client, baseURL string) *YahooFetcher {
	if baseURL == "" {
		baseURL = DefaultYahooBaseURL
	}
	return &YahooFetcher{
		Client:  client,
		BaseURL: baseURL,
		SymbolMap: map[string]string{
			"SPX":   "^GSPC",
			"SP500": "^GSPC",
			"NDX":   "^NDX",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

// yahooSymbol maps index aliases and class-share dots (BRK.B -> BRK-B).
// Exchange suffixes such as ".L" are kept.
func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	if n := len(symbol); n > 2 && symbol[n-2] == '.' && symbol[n-1] >= 'A' && symbol[n-1] <= 'Z' && symbol[n-1] != 'L' {
		return symbol[:n-2] + "-" + symbol[n-1:]
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// at reads a nullable column. Nulls become 0, which PricePoint treats as a gap and
// which survives JSON encoding in the cache.
func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil || math.IsNaN(*vals[i]) {
		return 0
	}
	return *vals[i]
}

// FetchDailyPrices loads adjusted daily closes. Null bars become gaps.
func (f *YahooFetcher) FetchDailyPrices(ctx context.Context, ticker string, from, to time.Time) (*model.PriceSeries, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=history&includeAdjustedClose=true",
		f.BaseURL, url.PathEscape(f.yahooSymbol(ticker)), model.Day(from).Unix(), model.Day(to).AddDate(0, 0, 1).Unix())

	body, err := f.Client.Get(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", ticker, err)
	}

	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo chart %s: decode: %w: %v", ticker, model.ErrSourceUnavailable, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w: %s", ticker, model.ErrSourceUnavailable, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w: no data returned", ticker, model.ErrSourceUnavailable)
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]
	closes := quote.Close
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) == len(result.Timestamp) {
		closes = result.Indicators.AdjClose[0].AdjClose
	}

	byDay := make(map[time.Time]model.PricePoint, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		day := model.Day(time.Unix(ts, 0))
		p := model.PricePoint{Date: day, Close: at(closes, i), Volume: at(quote.Volume, i)}
		// a late intraday bar may repeat the last session's day; keep the valid one
		if prev, dup := byDay[day]; dup && prev.Valid() && !p.Valid() {
			continue
		}
		byDay[day] = p
	}

	series := &model.PriceSeries{Ticker: ticker, Points: make([]model.PricePoint, 0, len(byDay))}
	for _, p := range byDay {
		series.Points = append(series.Points, p)
	}
	sort.Slice(series.Points, func(i, j int) bool { return series.Points[i].Date.Before(series.Points[j].Date) })
	return series, nil
}
