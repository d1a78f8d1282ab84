package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"TradeIdeas/internal/calculator"
	"TradeIdeas/internal/cross"
	"TradeIdeas/internal/model"
)

// CrossAlert is a cross event with the context a reader needs to act on it.
type CrossAlert struct {
	model.CrossEvent
	Name       string   `json:"name,omitempty"`
	LastPrice  *float64 `json:"last_price"`
	ShortMA    *float64 `json:"ma_short"`
	LongMA     *float64 `json:"ma_long"`
	RSI        *float64 `json:"rsi14"`
	TrailingPE *float64 `json:"trailing_pe"`
	ForwardPE  *float64 `json:"forward_pe"`
	MarketCap  *float64 `json:"market_cap"`
}

// CrossReport is the result of one cross scan.
type CrossReport struct {
	Index        string        `json:"index"`
	AsOf         time.Time     `json:"as_of"`
	LookbackDays int           `json:"lookback_days"`
	WindowDays   int           `json:"recency_window_days"`
	Alerts       []CrossAlert  `json:"alerts"`
	Skipped      []string      `json:"skipped,omitempty"`
	Dataset      model.Dataset `json:"dataset"`
}

// NormalizeLookback applies the default for zero and rejects values outside the bounds.
func NormalizeLookback(days int) (int, error) {
	if days == 0 {
		return DefaultLookbackDays, nil
	}
	if days < MinLookbackDays || days > MaxLookbackDays {
		return 0, fmt.Errorf("%w: lookback must be between %d and %d days", ErrInvalidArgument, MinLookbackDays, MaxLookbackDays)
	}
	return days, nil
}

// CrossAlerts scans every member of index for crosses inside the configured recency
// window before asOf. lookbackDays sizes the price history loaded. A zero asOf means today.
func (s *Service) CrossAlerts(ctx context.Context, index string, lookbackDays int, asOf time.Time) (rep *CrossReport, err error) {
	ctx, done := s.start(ctx, "crosses", attribute.String("index", index), attribute.Int("lookback", lookbackDays))
	defer func() { done(err) }()

	lookback, err := NormalizeLookback(lookbackDays)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = model.Day(asOf)

	members, err := s.Constituents(ctx, index)
	if err != nil {
		return nil, err
	}

	from := asOf.AddDate(0, 0, -(lookback + historyPaddingDays))
	series, skipped, err := s.col.PricesFor(ctx, symbols(members.Members), from, asOf)
	if err != nil {
		return nil, err
	}

	cfg := s.opts.Cross
	events := cross.Scan(series, asOf, cfg)

	byTicker := make(map[string]*model.PriceSeries, len(series))
	for _, ps := range series {
		byTicker[ps.Ticker] = ps
	}
	display := names(members.Members)

	alerts := make([]CrossAlert, 0, len(events))
	for _, e := range events {
		alert := s.enrich(ctx, e, byTicker[e.Ticker], cfg)
		if alert.Name == "" {
			alert.Name = display[strings.ToUpper(e.Ticker)]
		}
		alerts = append(alerts, alert)
		if s.metrics != nil {
			s.metrics.CrossEvents.WithLabelValues(string(e.Direction)).Inc()
		}
	}

	log.Info().Str("index", members.Index.Key).Int("series", len(series)).Int("skipped", len(skipped)).
		Int("events", len(alerts)).Msg("cross scan finished")

	ds := s.liveDataset()
	if members.Dataset.Synthetic {
		ds = members.Dataset
	}
	return &CrossReport{
		Index:        members.Index.Key,
		AsOf:         asOf,
		LookbackDays: lookback,
		WindowDays:   cfg.RecencyWindowDays,
		Alerts:       alerts,
		Skipped:      skipped,
		Dataset:      ds,
	}, nil
}

func (s *Service) enrich(ctx context.Context, e model.CrossEvent, series *model.PriceSeries, cfg cross.Config) CrossAlert {
	alert := CrossAlert{CrossEvent: e}
	if series != nil {
		if last, ok := series.Last(); ok {
			alert.LastPrice = model.Float(last.Close)
		}
		if ma, err := cross.ComputeMovingAverages(series, cfg); err == nil {
			if short, long, ok := ma.At(e.Date); ok {
				alert.ShortMA, alert.LongMA = model.Float(short), model.Float(long)
			}
		}
		if rsi, err := calculator.CalculateRSI(series.Closes(), rsiPeriod); err == nil {
			alert.RSI = model.Float(rsi)
		}
	}

	f, err := s.col.Fundamentals(ctx, e.Ticker)
	if err != nil {
		log.Debug().Err(err).Str("ticker", e.Ticker).Msg("no fundamentals for cross alert")
		return alert
	}
	alert.Name = f.Name
	alert.TrailingPE = f.TrailingPE
	alert.ForwardPE = f.ForwardPE
	alert.MarketCap = f.MarketCap
	return alert
}
