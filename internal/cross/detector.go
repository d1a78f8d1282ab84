// Package cross detects golden and death crosses of the 50/200-day moving averages.
package cross

import (
	"errors"
	"math"
	"sort"
	"time"

	"TradeIdeas/internal/calculator"
	"TradeIdeas/internal/model"
)

// ErrInsufficientHistory is returned by MovingAverages when the series is shorter than
// the long window. Detect treats it as an empty result.
var ErrInsufficientHistory = errors.New("insufficient price history")

// flatTolerance is the relative band inside which MA50 and MA200 count as equal.
const flatTolerance = 1e-9

// Config parameterises the detector.
type Config struct {
	ShortWindow       int `yaml:"short_window"`
	LongWindow        int `yaml:"long_window"`
	RecencyWindowDays int `yaml:"recency_window_days"`
}

// DefaultConfig returns the 50/200 detector with a one-week recency window.
func DefaultConfig() Config {
	return Config{ShortWindow: 50, LongWindow: 200, RecencyWindowDays: 7}
}

// MovingAverages holds MA values aligned to the source series dates. Undefined entries are NaN.
type MovingAverages struct {
	Dates []time.Time
	Short []float64
	Long  []float64
}

// Defined reports whether both averages exist at index i.
func (m *MovingAverages) Defined(i int) bool {
	return !math.IsNaN(m.Short[i]) && !math.IsNaN(m.Long[i])
}

// At returns both averages on the given calendar day.
func (m *MovingAverages) At(day time.Time) (short, long float64, ok bool) {
	day = model.Day(day)
	for i, d := range m.Dates {
		if model.Day(d).Equal(day) && m.Defined(i) {
			return m.Short[i], m.Long[i], true
		}
	}
	return 0, 0, false
}

// ComputeMovingAverages aligns the short and long SMA series to the series dates.
func ComputeMovingAverages(series *model.PriceSeries, cfg Config) (*MovingAverages, error) {
	if series.ValidCount() < cfg.LongWindow {
		return nil, ErrInsufficientHistory
	}
	closes := series.Closes()
	dates := make([]time.Time, len(series.Points))
	for i, p := range series.Points {
		dates[i] = p.Date
	}
	return &MovingAverages{
		Dates: dates,
		Short: calculator.SMASeries(closes, cfg.ShortWindow),
		Long:  calculator.SMASeries(closes, cfg.LongWindow),
	}, nil
}

// sign maps the MA difference to +1/-1, returning 0 inside the flat band.
func sign(short, long float64) int {
	diff := short - long
	if math.Abs(diff) <= flatTolerance*math.Max(math.Abs(short), math.Abs(long)) {
		return 0
	}
	if diff > 0 {
		return 1
	}
	return -1
}

// Transitions walks the defined dates and emits an event wherever the sign flips.
// A zero sign continues the previous one; with no previous sign it counts as +1.
func Transitions(ticker string, ma *MovingAverages) []model.CrossEvent {
	var events []model.CrossEvent
	prev := 0
	for i := range ma.Dates {
		if !ma.Defined(i) {
			continue
		}
		s := sign(ma.Short[i], ma.Long[i])
		if s == 0 {
			s = prev
			if s == 0 {
				s = 1
			}
		}
		switch {
		case prev == -1 && s == 1:
			events = append(events, model.CrossEvent{Ticker: ticker, Date: ma.Dates[i], Direction: model.Golden})
		case prev == 1 && s == -1:
			events = append(events, model.CrossEvent{Ticker: ticker, Date: ma.Dates[i], Direction: model.Death})
		}
		prev = s
	}
	return events
}

// Detect returns the crosses of one series dated within RecencyWindowDays of asOf,
// both ends inclusive. Short histories yield no events.
func Detect(series *model.PriceSeries, asOf time.Time, cfg Config) []model.CrossEvent {
	ma, err := ComputeMovingAverages(series, cfg)
	if err != nil {
		return nil
	}
	from := model.Day(asOf).AddDate(0, 0, -cfg.RecencyWindowDays)
	to := model.Day(asOf)

	var recent []model.CrossEvent
	for _, e := range Transitions(series.Ticker, ma) {
		d := model.Day(e.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		recent = append(recent, e)
	}
	return recent
}

// Scan runs Detect over many series and orders the result by date, then ticker.
func Scan(series []*model.PriceSeries, asOf time.Time, cfg Config) []model.CrossEvent {
	var all []model.CrossEvent
	for _, s := range series {
		all = append(all, Detect(s, asOf, cfg)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		di, dj := model.Day(all[i].Date), model.Day(all[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return all[i].Ticker < all[j].Ticker
	})
	return all
}
