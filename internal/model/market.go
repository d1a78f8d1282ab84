package model

import (
	"fmt"
	"math"
	"time"
)

// PricePoint is one daily observation. A non-positive or non-finite Close marks a gap.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// Valid reports whether the point carries a usable close price.
func (p PricePoint) Valid() bool {
	return p.Close > 0 && !math.IsInf(p.Close, 0) && !math.IsNaN(p.Close)
}

// PriceSeries holds daily prices for one ticker, ascending by date.
type PriceSeries struct {
	Ticker string       `json:"ticker"`
	Points []PricePoint `json:"points"`
}

// ValidCount returns the number of non-gap observations.
func (s *PriceSeries) ValidCount() int {
	n := 0
	for _, p := range s.Points {
		if p.Valid() {
			n++
		}
	}
	return n
}

// Last returns the most recent valid point.
func (s *PriceSeries) Last() (PricePoint, bool) {
	for i := len(s.Points) - 1; i >= 0; i-- {
		if s.Points[i].Valid() {
			return s.Points[i], true
		}
	}
	return PricePoint{}, false
}

// Closes returns the close column, gaps included.
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Validate checks that dates are strictly increasing.
func (s *PriceSeries) Validate() error {
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].Date.After(s.Points[i-1].Date) {
			return fmt.Errorf("%s: dates not strictly increasing at %s", s.Ticker, s.Points[i].Date.Format(DateLayout))
		}
	}
	return nil
}

// DateLayout is the calendar-day layout used across the API and CLI.
const DateLayout = "2006-01-02"

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(Day(b).Sub(Day(a)).Hours() / 24))
}

// Fundamentals are point-in-time company metrics loaded by the quote adapter.
// Nil fields were not reported by the source.
type Fundamentals struct {
	Ticker            string   `json:"ticker"`
	Name              string   `json:"name"`
	MarketCap         *float64 `json:"market_cap,omitempty"`
	FloatShares       *float64 `json:"float_shares,omitempty"`
	SharesOutstanding *float64 `json:"shares_outstanding,omitempty"`
	ProfitMarginPct   *float64 `json:"profit_margin_pct,omitempty"`
	ReturnOnEquityPct *float64 `json:"return_on_equity_pct,omitempty"`
	RevenueGrowthPct  *float64 `json:"revenue_growth_pct,omitempty"`
	EarningsGrowthPct *float64 `json:"earnings_growth_pct,omitempty"`
	DebtToEquity      *float64 `json:"debt_to_equity,omitempty"`
	FreeCashflow      *float64 `json:"free_cashflow,omitempty"`
	TrailingPE        *float64 `json:"trailing_pe,omitempty"`
	ForwardPE         *float64 `json:"forward_pe,omitempty"`
}

// FloatPct derives the float percentage from float and outstanding shares.
func (f *Fundamentals) FloatPct() *float64 {
	if f.FloatShares == nil || f.SharesOutstanding == nil || *f.SharesOutstanding <= 0 {
		return nil
	}
	pct := *f.FloatShares / *f.SharesOutstanding * 100
	return &pct
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
