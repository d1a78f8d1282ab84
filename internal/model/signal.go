package model

import "time"

// Direction of a moving-average cross.
type Direction string

const (
	Golden Direction = "golden"
	Death  Direction = "death"
)

// CrossEvent marks a sign change of MA50 - MA200.
type CrossEvent struct {
	Ticker    string    `json:"ticker"`
	Date      time.Time `json:"date"`
	Direction Direction `json:"direction"`
}

// FactorScore represents a single rubric factor's scoring result.
type FactorScore struct {
	Name       string  `json:"name"`
	Points     float64 `json:"points"`
	MaxPoints  float64 `json:"max_points"`
	Commentary string  `json:"commentary"`
}

// CandidateInput carries the point metrics for one ticker. Nil means not reported.
type CandidateInput struct {
	Ticker            string
	Name              string
	MarketCap         *float64
	FloatPct          *float64
	AvgDollarVolume   *float64
	ProfitMarginPct   *float64
	ReturnOnEquityPct *float64
	RevenueGrowthPct  *float64
	EarningsGrowthPct *float64
	DebtToEquity      *float64
	FreeCashflow      *float64
}

// CandidateRecord is a scored promotion candidate.
type CandidateRecord struct {
	Ticker                string        `json:"ticker"`
	Name                  string        `json:"name,omitempty"`
	MarketCap             *float64      `json:"market_cap"`
	FloatSharesPct        *float64      `json:"float_shares_pct"`
	AvgDollarVolume       *float64      `json:"avg_dollar_volume"`
	ProfitabilityFlag     bool          `json:"profitability_flag"`
	GrowthMetric          *float64      `json:"growth_metric"`
	FinancialHealthMetric *float64      `json:"financial_health_metric"`
	Factors               []FactorScore `json:"factors"`
	Score                 float64       `json:"score"`
	CriteriaMet           bool          `json:"criteria_met"`
	Incomplete            bool          `json:"incomplete"`
	MissingMetrics        []string      `json:"missing_metrics,omitempty"`
}
