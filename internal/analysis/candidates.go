package analysis

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"

	"TradeIdeas/internal/model"
)

// CandidateReport ranks possible index additions.
type CandidateReport struct {
	Universe   string                  `json:"universe"`
	Members    string                  `json:"members"`
	Evaluated  int                     `json:"evaluated"`
	Candidates []model.CandidateRecord `json:"candidates"`
	Skipped    []string                `json:"skipped,omitempty"`
	Dataset    model.Dataset           `json:"dataset"`
}

// Candidates scores up to limit members of the universe index that are not in the member
// index. A non-positive limit uses MaxCandidates.
func (s *Service) Candidates(ctx context.Context, limit int, asOf time.Time) (rep *CandidateReport, err error) {
	ctx, done := s.start(ctx, "candidates", attribute.Int("limit", limit))
	defer func() { done(err) }()

	if limit <= 0 || limit > s.opts.MaxCandidates {
		limit = s.opts.MaxCandidates
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	asOf = model.Day(asOf)

	universe, err := s.Constituents(ctx, s.opts.UniverseIndex)
	if err != nil {
		return nil, err
	}
	membership := make(map[string]bool)
	members, err := s.Constituents(ctx, s.opts.MemberIndex)
	switch {
	case err == nil:
		for _, m := range members.Members {
			membership[strings.ToUpper(m.Symbol)] = true
		}
	case universe.Dataset.Synthetic && errors.Is(err, model.ErrSourceUnavailable):
		log.Warn().Err(err).Msg("member index unavailable, sample universe used as-is")
	default:
		return nil, err
	}

	var tickers []string
	for _, c := range universe.Members {
		if membership[strings.ToUpper(c.Symbol)] {
			continue
		}
		tickers = append(tickers, c.Symbol)
		if len(tickers) == limit {
			break
		}
	}

	inputs := make([]model.CandidateInput, 0, len(tickers))
	var skipped []string
	for _, t := range tickers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in, err := s.col.CandidateInput(ctx, t, asOf)
		if err != nil {
			skipped = append(skipped, t)
			continue
		}
		inputs = append(inputs, in)
	}

	records := s.scorer.Score(inputs, membership)
	if s.metrics != nil {
		s.metrics.Candidates.Add(float64(len(records)))
	}
	log.Info().Int("evaluated", len(inputs)).Int("skipped", len(skipped)).Msg("candidate scoring finished")

	ds := s.liveDataset()
	if universe.Dataset.Synthetic {
		ds = universe.Dataset
	}
	return &CandidateReport{
		Universe:   universe.Index.Key,
		Members:    s.opts.MemberIndex,
		Evaluated:  len(inputs),
		Candidates: records,
		Skipped:    skipped,
		Dataset:    ds,
	}, nil
}
