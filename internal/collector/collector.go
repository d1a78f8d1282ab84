package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"TradeIdeas/internal/cache"
	"TradeIdeas/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price        float64
	Series       map[string]*model.PriceSeries
	Fundamentals map[string]*model.Fundamentals
	Fail         map[string]bool
	Calls        int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyPrices(_ context.Context, ticker string, from, to time.Time) (*model.PriceSeries, error) {
	m.Calls++
	if m.Fail[ticker] {
		return nil, fmt.Errorf("mock %s: %w", ticker, model.ErrSourceUnavailable)
	}
	if s, ok := m.Series[ticker]; ok {
		out := &model.PriceSeries{Ticker: ticker}
		for _, p := range s.Points {
			d := model.Day(p.Date)
			if !d.Before(model.Day(from)) && !d.After(model.Day(to)) {
				out.Points = append(out.Points, p)
			}
		}
		return out, nil
	}
	return generateMockSeries(ticker, m.Price, from, to), nil
}

func (m *MockFetcher) FetchFundamentals(_ context.Context, ticker string) (*model.Fundamentals, error) {
	m.Calls++
	if m.Fail[ticker] {
		return nil, fmt.Errorf("mock %s: %w", ticker, model.ErrSourceUnavailable)
	}
	if f, ok := m.Fundamentals[ticker]; ok {
		return f, nil
	}
	return &model.Fundamentals{Ticker: ticker, Name: ticker}, nil
}

func generateMockSeries(ticker string, basePrice float64, from, to time.Time) *model.PriceSeries {
	s := &model.PriceSeries{Ticker: ticker}
	i := 0
	for d := model.Day(from); !d.After(model.Day(to)); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i)*0.001)
		s.Points = append(s.Points, model.PricePoint{Date: d, Close: p, Volume: 1000000})
		i++
	}
	return s
}

// Collector fronts a Fetcher with the adapter cache.
type Collector struct {
	Fetcher Fetcher
	Cache   *cache.Cache
}

// NewCollector creates a new Collector. A nil cache disables memoisation.
func NewCollector(fetcher Fetcher, c *cache.Cache) *Collector {
	return &Collector{Fetcher: fetcher, Cache: c}
}

// Prices loads one series through the cache.
func (c *Collector) Prices(ctx context.Context, ticker string, from, to time.Time) (*model.PriceSeries, error) {
	args := []any{c.Fetcher.Name(), ticker, model.Day(from).Format(model.DateLayout), model.Day(to).Format(model.DateLayout)}
	return cache.GetOrLoad(ctx, c.Cache, "prices", args, func(ctx context.Context) (*model.PriceSeries, error) {
		s, err := c.Fetcher.FetchDailyPrices(ctx, ticker, from, to)
		if err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrSourceUnavailable, err)
		}
		return s, nil
	})
}

// Fundamentals loads one company's metrics through the cache.
func (c *Collector) Fundamentals(ctx context.Context, ticker string) (*model.Fundamentals, error) {
	return cache.GetOrLoad(ctx, c.Cache, "fundamentals", []any{c.Fetcher.Name(), ticker}, func(ctx context.Context) (*model.Fundamentals, error) {
		return c.Fetcher.FetchFundamentals(ctx, ticker)
	})
}

// PricesFor loads many tickers sequentially. Tickers that fail are logged and returned in
// skipped; a cancelled context stops the loop.
func (c *Collector) PricesFor(ctx context.Context, tickers []string, from, to time.Time) (series []*model.PriceSeries, skipped []string, err error) {
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return series, skipped, err
		}
		s, err := c.Prices(ctx, t, from, to)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return series, skipped, err
			}
			log.Warn().Err(err).Str("ticker", t).Msg("price load failed, skipping")
			skipped = append(skipped, t)
			continue
		}
		series = append(series, s)
	}
	return series, skipped, nil
}

// LiquidityBars is how many recent sessions feed the average dollar volume.
const LiquidityBars = 180

// AvgDollarVolume averages close x volume over the last n valid sessions.
func AvgDollarVolume(s *model.PriceSeries, n int) *float64 {
	sum, count := 0.0, 0
	for i := len(s.Points) - 1; i >= 0 && count < n; i-- {
		p := s.Points[i]
		if !p.Valid() {
			continue
		}
		sum += p.Close * p.Volume
		count++
	}
	if count == 0 {
		return nil
	}
	return model.Float(sum / float64(count))
}

// CandidateInput gathers fundamentals and one year of prices for the scorer.
// Partial failures leave the matching metrics nil.
func (c *Collector) CandidateInput(ctx context.Context, ticker string, asOf time.Time) (model.CandidateInput, error) {
	in := model.CandidateInput{Ticker: ticker}
	f, ferr := c.Fundamentals(ctx, ticker)
	if ferr == nil {
		in.Name = f.Name
		in.MarketCap = f.MarketCap
		in.FloatPct = f.FloatPct()
		in.ProfitMarginPct = f.ProfitMarginPct
		in.ReturnOnEquityPct = f.ReturnOnEquityPct
		in.RevenueGrowthPct = f.RevenueGrowthPct
		in.EarningsGrowthPct = f.EarningsGrowthPct
		in.DebtToEquity = f.DebtToEquity
		in.FreeCashflow = f.FreeCashflow
	} else {
		log.Warn().Err(ferr).Str("ticker", ticker).Msg("fundamentals unavailable")
	}

	s, perr := c.Prices(ctx, ticker, asOf.AddDate(-1, 0, 0), asOf)
	if perr == nil {
		in.AvgDollarVolume = AvgDollarVolume(s, LiquidityBars)
	} else {
		log.Warn().Err(perr).Str("ticker", ticker).Msg("volume history unavailable")
	}

	if ferr != nil && perr != nil {
		return in, fmt.Errorf("candidate %s: %w", ticker, ferr)
	}
	return in, nil
}
