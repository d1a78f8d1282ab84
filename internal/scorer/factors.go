package scorer

import (
	"fmt"
	"math"
	"strings"

	"TradeIdeas/internal/model"
)

// Metric names reported in CandidateRecord.MissingMetrics.
const (
	MetricMarketCap       = "market_cap"
	MetricFloatPct        = "float_pct"
	MetricAvgDollarVolume = "avg_dollar_volume"
	MetricProfitMargin    = "profit_margin"
	MetricReturnOnEquity  = "return_on_equity"
	MetricRevenueGrowth   = "revenue_growth"
	MetricEarningsGrowth  = "earnings_growth"
	MetricDebtToEquity    = "debt_to_equity"
	MetricFreeCashflow    = "free_cashflow"
)

// scoreMarketCap gives nothing below the gate, then base points plus a per-billion step
// above it, saturating at MarketCapPoints.
func scoreMarketCap(in *model.CandidateInput, c Config) (model.FactorScore, []string) {
	f := model.FactorScore{Name: "Market Cap", MaxPoints: c.MarketCapPoints}
	if in.MarketCap == nil {
		f.Commentary = "market cap unavailable"
		return f, []string{MetricMarketCap}
	}
	mcap := *in.MarketCap
	if mcap >= c.MinMarketCap {
		excess := (mcap - c.MinMarketCap) / 1e9
		f.Points = math.Min(c.MarketCapPoints, c.MarketCapBasePoints+excess*c.MarketCapPointsPerBillion)
	}
	f.Commentary = fmt.Sprintf("$%.1fB vs $%.1fB gate", mcap/1e9, c.MinMarketCap/1e9)
	return f, nil
}

func scoreFloat(in *model.CandidateInput, c Config) (model.FactorScore, []string) {
	f := model.FactorScore{Name: "Float", MaxPoints: c.FloatPoints}
	if in.FloatPct == nil {
		f.Commentary = "float unavailable"
		return f, []string{MetricFloatPct}
	}
	if *in.FloatPct >= c.MinFloatPct {
		f.Points = c.FloatPoints
	}
	f.Commentary = fmt.Sprintf("%.1f%% float", *in.FloatPct)
	return f, nil
}

// scoreLiquidity is proportional to average dollar volume up to the floor.
func scoreLiquidity(in *model.CandidateInput, c Config) (model.FactorScore, []string) {
	f := model.FactorScore{Name: "Liquidity", MaxPoints: c.LiquidityPoints}
	if in.AvgDollarVolume == nil {
		f.Commentary = "volume unavailable"
		return f, []string{MetricAvgDollarVolume}
	}
	ratio := math.Max(0, *in.AvgDollarVolume/c.MinAvgDollarVolume)
	f.Points = c.LiquidityPoints * math.Min(1, ratio)
	f.Commentary = fmt.Sprintf("$%.1fM/day", *in.AvgDollarVolume/1e6)
	return f, nil
}

// scoreProfitability averages margin and ROE, and only when both are positive.
func scoreProfitability(in *model.CandidateInput, c Config) (model.FactorScore, bool, []string) {
	f := model.FactorScore{Name: "Profitability", MaxPoints: c.ProfitabilityPoints}
	var missing []string
	if in.ProfitMarginPct == nil {
		missing = append(missing, MetricProfitMargin)
	}
	if in.ReturnOnEquityPct == nil {
		missing = append(missing, MetricReturnOnEquity)
	}
	if len(missing) > 0 {
		f.Commentary = "profitability unavailable"
		return f, false, missing
	}
	margin, roe := *in.ProfitMarginPct, *in.ReturnOnEquityPct
	profitable := margin > 0 && roe > 0
	if profitable {
		f.Points = math.Min(c.ProfitabilityPoints, (margin+roe)/2)
	}
	f.Commentary = fmt.Sprintf("margin %.1f%%, ROE %.1f%%", margin, roe)
	return f, profitable, nil
}

// scoreGrowth takes the better of revenue and earnings growth.
func scoreGrowth(in *model.CandidateInput, c Config) (model.FactorScore, *float64, []string) {
	f := model.FactorScore{Name: "Growth", MaxPoints: c.GrowthPoints}
	var missing []string
	best := math.Inf(-1)
	for _, m := range []struct {
		name string
		v    *float64
	}{
		{MetricRevenueGrowth, in.RevenueGrowthPct},
		{MetricEarningsGrowth, in.EarningsGrowthPct},
	} {
		if m.v == nil {
			missing = append(missing, m.name)
			continue
		}
		best = math.Max(best, *m.v)
	}
	if math.IsInf(best, -1) {
		f.Commentary = "growth unavailable"
		return f, nil, missing
	}
	if best > 0 {
		f.Points = math.Min(c.GrowthPoints, best/2)
	}
	f.Commentary = fmt.Sprintf("best growth %.1f%%", best)
	return f, model.Float(best), missing
}

// scoreHealth rewards low leverage and positive free cash flow.
func scoreHealth(in *model.CandidateInput, c Config) (model.FactorScore, []string) {
	f := model.FactorScore{Name: "Financial Health", MaxPoints: c.LeveragePoints + c.CashflowPoints}
	var missing []string
	var notes []string
	if in.DebtToEquity == nil {
		missing = append(missing, MetricDebtToEquity)
	} else {
		de := *in.DebtToEquity
		if de <= 0 {
			f.Points += c.LeveragePoints
		} else {
			f.Points += math.Max(0, c.LeveragePoints-de/10)
		}
		notes = append(notes, fmt.Sprintf("D/E %.1f", de))
	}
	if in.FreeCashflow == nil {
		missing = append(missing, MetricFreeCashflow)
	} else {
		if *in.FreeCashflow > 0 {
			f.Points += c.CashflowPoints
		}
		notes = append(notes, fmt.Sprintf("FCF $%.2fB", *in.FreeCashflow/1e9))
	}
	if len(notes) == 0 {
		f.Commentary = "balance sheet unavailable"
	} else {
		f.Commentary = strings.Join(notes, ", ")
	}
	return f, missing
}
