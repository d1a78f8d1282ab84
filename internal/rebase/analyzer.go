// Package rebase normalises a price series to its value on an anchor date and
// summarises performance around it.
package rebase

import (
	"errors"
	"fmt"
	"time"

	"TradeIdeas/internal/calculator"
	"TradeIdeas/internal/model"
)

// ErrNoAnchorFound means no observation sits within the tolerance of the anchor date.
var ErrNoAnchorFound = errors.New("no trading day near anchor date")

// Config parameterises the analyzer.
type Config struct {
	WindowDays          int `yaml:"window_days"`
	AnchorToleranceDays int `yaml:"anchor_tolerance_days"`
}

// DefaultConfig looks three months either side and accepts an anchor up to five days away.
func DefaultConfig() Config {
	return Config{WindowDays: 90, AnchorToleranceDays: 5}
}

// Validate rejects windows that could leave the anchor trading day outside the frame.
func (c Config) Validate() error {
	if c.WindowDays <= 0 {
		return errors.New("window_days must be positive")
	}
	if c.AnchorToleranceDays < 0 {
		return errors.New("anchor_tolerance_days must not be negative")
	}
	if c.WindowDays < c.AnchorToleranceDays {
		return fmt.Errorf("window_days %d must be at least anchor_tolerance_days %d", c.WindowDays, c.AnchorToleranceDays)
	}
	return nil
}

// AnchorTradingDay returns the index of the valid observation closest to anchor.
// Equidistant candidates resolve to the earlier date.
func AnchorTradingDay(series *model.PriceSeries, anchor time.Time, toleranceDays int) (int, error) {
	best, bestDist := -1, toleranceDays+1
	for i, p := range series.Points {
		if !p.Valid() {
			continue
		}
		dist := model.DaysBetween(anchor, p.Date)
		if dist < 0 {
			dist = -dist
		}
		// strict comparison keeps the earlier of two equidistant days
		if dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return -1, fmt.Errorf("%s on %s: %w", series.Ticker, anchor.Format(model.DateLayout), ErrNoAnchorFound)
	}
	return best, nil
}

// Rebase divides every valid price within WindowDays of anchor by the anchor trading
// day's price.
func Rebase(series *model.PriceSeries, anchor time.Time, cfg Config) (*model.RebaseFrame, error) {
	idx, err := AnchorTradingDay(series, anchor, cfg.AnchorToleranceDays)
	if err != nil {
		return nil, err
	}
	base := series.Points[idx]

	from := model.Day(anchor).AddDate(0, 0, -cfg.WindowDays)
	to := model.Day(anchor).AddDate(0, 0, cfg.WindowDays)
	frame := &model.RebaseFrame{
		Ticker:           series.Ticker,
		AnchorDate:       model.Day(anchor),
		AnchorTradingDay: model.Day(base.Date),
		AnchorPrice:      base.Close,
	}
	for i, p := range series.Points {
		d := model.Day(p.Date)
		if !p.Valid() || d.Before(from) || d.After(to) {
			continue
		}
		value := p.Close / base.Close
		if i == idx {
			value = 1.0
		}
		frame.Points = append(frame.Points, model.RebasePoint{
			Date:       d,
			OffsetDays: model.DaysBetween(base.Date, p.Date),
			Value:      value,
		})
	}
	return frame, nil
}

// Summarize derives the performance summary of a frame.
func Summarize(frame *model.RebaseFrame) model.PerformanceSummary {
	sum := model.PerformanceSummary{Ticker: frame.Ticker}
	if len(frame.Points) == 0 {
		return sum
	}
	first := frame.Points[0].Value
	last := frame.Points[len(frame.Points)-1].Value

	sum.PreWindowReturn = first - 1
	sum.PostWindowReturn = last - 1
	sum.RunUpReturn = (1 - first) / first
	sum.TotalReturn = (last - first) / first

	values := make([]float64, len(frame.Points))
	for i, p := range frame.Points {
		values[i] = p.Value
	}
	sum.AnnualizedVolatility = calculator.AnnualizedVolatility(values)
	return sum
}
