package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"TradeIdeas/internal/constituents"
	"TradeIdeas/internal/model"
	"TradeIdeas/internal/rebase"
)

// ChangesReport is the index change history, newest first.
type ChangesReport struct {
	Changes []model.IndexChange `json:"changes"`
	Dataset model.Dataset       `json:"dataset"`
}

// Changes returns the change history, falling back to the sample when allowed.
func (s *Service) Changes(ctx context.Context) (rep *ChangesReport, err error) {
	ctx, done := s.start(ctx, "changes")
	defer func() { done(err) }()

	changes, err := s.src.Changes(ctx)
	if err == nil {
		return &ChangesReport{Changes: changes, Dataset: s.liveDataset()}, nil
	}
	if s.opts.AllowSampleFallback && errors.Is(err, model.ErrSourceUnavailable) {
		log.Warn().Err(err).Msg("using sample change history")
		return &ChangesReport{Changes: constituents.SampleChanges(), Dataset: s.sampleDataset(err)}, nil
	}
	return nil, err
}

// ChangeResult is one rebased symbol of a change date.
type ChangeResult struct {
	Change  model.IndexChange        `json:"change"`
	Summary model.PerformanceSummary `json:"summary"`
	Frame   *model.RebaseFrame       `json:"frame,omitempty"`
}

// TypeAverages averages the summaries of one change type.
type TypeAverages struct {
	Count                int     `json:"count"`
	PreWindowReturn      float64 `json:"pre_window_return"`
	PostWindowReturn     float64 `json:"post_window_return"`
	RunUpReturn          float64 `json:"run_up_return"`
	TotalReturn          float64 `json:"total_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
}

// SkippedSymbol explains why a symbol has no summary.
type SkippedSymbol struct {
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
}

// ChangePerformance is the rebased performance of every symbol changed on one date.
type ChangePerformance struct {
	Date     time.Time                         `json:"date"`
	Results  []ChangeResult                    `json:"results"`
	Averages map[model.ChangeType]TypeAverages `json:"averages"`
	Skipped  []SkippedSymbol                   `json:"skipped,omitempty"`
	Dataset  model.Dataset                     `json:"dataset"`
}

// ChangePerformance rebases every symbol added or removed on date. includeFrames keeps
// the full rebased series on each result.
func (s *Service) ChangePerformance(ctx context.Context, date time.Time, includeFrames bool) (perf *ChangePerformance, err error) {
	date = model.Day(date)
	ctx, done := s.start(ctx, "change_performance", attribute.String("date", date.Format(model.DateLayout)))
	defer func() { done(err) }()

	hist, err := s.Changes(ctx)
	if err != nil {
		return nil, err
	}
	var onDate []model.IndexChange
	for _, c := range hist.Changes {
		if model.Day(c.Date).Equal(date) {
			onDate = append(onDate, c)
		}
	}
	if len(onDate) == 0 {
		return nil, fmt.Errorf("%w: no index changes on %s", ErrNotFound, date.Format(model.DateLayout))
	}

	perf = &ChangePerformance{Date: date, Averages: map[model.ChangeType]TypeAverages{}, Dataset: hist.Dataset}
	for _, c := range onDate {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		frame, summary, err := s.rebase(ctx, c.Symbol, date)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			log.Warn().Err(err).Str("ticker", c.Symbol).Msg("performance skipped")
			perf.Skipped = append(perf.Skipped, SkippedSymbol{Symbol: c.Symbol, Reason: err.Error()})
			continue
		}
		res := ChangeResult{Change: c, Summary: summary}
		if includeFrames {
			res.Frame = frame
		}
		perf.Results = append(perf.Results, res)
	}
	perf.Averages = averageByType(perf.Results)
	return perf, nil
}

func averageByType(results []ChangeResult) map[model.ChangeType]TypeAverages {
	out := make(map[model.ChangeType]TypeAverages)
	for _, r := range results {
		a := out[r.Change.Type]
		a.Count++
		a.PreWindowReturn += r.Summary.PreWindowReturn
		a.PostWindowReturn += r.Summary.PostWindowReturn
		a.RunUpReturn += r.Summary.RunUpReturn
		a.TotalReturn += r.Summary.TotalReturn
		a.AnnualizedVolatility += r.Summary.AnnualizedVolatility
		out[r.Change.Type] = a
	}
	for k, a := range out {
		n := float64(a.Count)
		a.PreWindowReturn /= n
		a.PostWindowReturn /= n
		a.RunUpReturn /= n
		a.TotalReturn /= n
		a.AnnualizedVolatility /= n
		out[k] = a
	}
	return out
}

// RebaseResult is a single-ticker rebase.
type RebaseResult struct {
	Frame   *model.RebaseFrame       `json:"frame"`
	Summary model.PerformanceSummary `json:"summary"`
}

// Rebase re-indexes one ticker around anchor.
func (s *Service) Rebase(ctx context.Context, ticker string, anchor time.Time) (res *RebaseResult, err error) {
	ctx, done := s.start(ctx, "rebase", attribute.String("ticker", ticker))
	defer func() { done(err) }()

	frame, summary, err := s.rebase(ctx, ticker, anchor)
	if err != nil {
		return nil, err
	}
	return &RebaseResult{Frame: frame, Summary: summary}, nil
}

func (s *Service) rebase(ctx context.Context, ticker string, anchor time.Time) (*model.RebaseFrame, model.PerformanceSummary, error) {
	cfg := s.opts.Rebase
	anchor = model.Day(anchor)
	pad := cfg.WindowDays + cfg.AnchorToleranceDays
	from := anchor.AddDate(0, 0, -pad)
	to := anchor.AddDate(0, 0, pad)
	if today := model.Day(s.now()); to.After(today) {
		to = today
	}
	if to.Before(from) {
		return nil, model.PerformanceSummary{}, fmt.Errorf("%s: %w", ticker, rebase.ErrNoAnchorFound)
	}

	series, err := s.col.Prices(ctx, ticker, from, to)
	if err != nil {
		return nil, model.PerformanceSummary{}, err
	}
	frame, err := rebase.Rebase(series, anchor, cfg)
	if err != nil {
		return nil, model.PerformanceSummary{}, err
	}
	return frame, rebase.Summarize(frame), nil
}
