// Package scorer ranks index-promotion candidates with a weighted 100-point rubric.
package scorer

import (
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"TradeIdeas/internal/model"
)

// Scorer applies one rubric. It holds no mutable state.
type Scorer struct {
	cfg Config
}

// New returns a scorer bound to a copy of cfg.
func New(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Config returns the rubric in use.
func (s *Scorer) Config() Config { return s.cfg }

// Score drops every ticker already in membership, scores the rest and ranks them by
// score, then market cap, then ticker.
func (s *Scorer) Score(universe []model.CandidateInput, membership map[string]bool) []model.CandidateRecord {
	members := make(map[string]bool, len(membership))
	for t, in := range membership {
		if in {
			members[normalize(t)] = true
		}
	}

	records := make([]model.CandidateRecord, 0, len(universe))
	for i := range universe {
		if members[normalize(universe[i].Ticker)] {
			continue
		}
		records = append(records, s.Evaluate(&universe[i]))
	}

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		ca, cb := valueOr(a.MarketCap, 0), valueOr(b.MarketCap, 0)
		if ca != cb {
			return ca > cb
		}
		return a.Ticker < b.Ticker
	})
	return records
}

// Evaluate scores a single candidate. Missing metrics add zero and are listed on the record.
func (s *Scorer) Evaluate(in *model.CandidateInput) model.CandidateRecord {
	c := s.cfg
	rec := model.CandidateRecord{
		Ticker:                in.Ticker,
		Name:                  in.Name,
		MarketCap:             in.MarketCap,
		FloatSharesPct:        in.FloatPct,
		AvgDollarVolume:       in.AvgDollarVolume,
		FinancialHealthMetric: in.DebtToEquity,
	}

	var missing []string
	capScore, m := scoreMarketCap(in, c)
	missing = append(missing, m...)
	floatScore, m := scoreFloat(in, c)
	missing = append(missing, m...)
	liqScore, m := scoreLiquidity(in, c)
	missing = append(missing, m...)
	profScore, profitable, m := scoreProfitability(in, c)
	missing = append(missing, m...)
	growthScore, growth, m := scoreGrowth(in, c)
	missing = append(missing, m...)
	healthScore, m := scoreHealth(in, c)
	missing = append(missing, m...)

	rec.Factors = []model.FactorScore{capScore, floatScore, liqScore, profScore, growthScore, healthScore}
	total := 0.0
	for _, f := range rec.Factors {
		total += f.Points
	}
	rec.Score = math.Max(0, math.Min(100, total))
	rec.ProfitabilityFlag = profitable
	rec.GrowthMetric = growth

	rec.CriteriaMet = in.MarketCap != nil && *in.MarketCap >= c.MinMarketCap &&
		in.FloatPct != nil && *in.FloatPct >= c.MinFloatPct &&
		in.AvgDollarVolume != nil && *in.AvgDollarVolume >= c.MinAvgDollarVolume

	if len(missing) > 0 {
		rec.Incomplete = true
		rec.MissingMetrics = missing
		log.Debug().Str("ticker", in.Ticker).Strs("missing", missing).Msg("incomplete candidate profile")
	}
	return rec
}

func normalize(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
