package scorer

import "fmt"

// Config is the immutable rubric: hard gates and point values.
type Config struct {
	MinMarketCap              float64 `yaml:"min_market_cap"`
	MarketCapPoints           float64 `yaml:"market_cap_points"`
	MarketCapBasePoints       float64 `yaml:"market_cap_base_points"`
	MarketCapPointsPerBillion float64 `yaml:"market_cap_points_per_billion"`

	MinFloatPct float64 `yaml:"min_float_pct"`
	FloatPoints float64 `yaml:"float_points"`

	MinAvgDollarVolume float64 `yaml:"min_avg_dollar_volume"`
	LiquidityPoints    float64 `yaml:"liquidity_points"`

	ProfitabilityPoints float64 `yaml:"profitability_points"`
	GrowthPoints        float64 `yaml:"growth_points"`
	LeveragePoints      float64 `yaml:"leverage_points"`
	CashflowPoints      float64 `yaml:"cashflow_points"`
}

// DefaultConfig mirrors the S&P 500 eligibility rules as of 2024.
func DefaultConfig() Config {
	return Config{
		MinMarketCap:              22.7e9,
		MarketCapPoints:           30,
		MarketCapBasePoints:       20,
		MarketCapPointsPerBillion: 1,
		MinFloatPct:               50,
		FloatPoints:               20,
		MinAvgDollarVolume:        10e6,
		LiquidityPoints:           10,
		ProfitabilityPoints:       10,
		GrowthPoints:              10,
		LeveragePoints:            5,
		CashflowPoints:            5,
	}
}

// MaxScore is the sum of all factor maxima.
func (c Config) MaxScore() float64 {
	return c.MarketCapPoints + c.FloatPoints + c.LiquidityPoints +
		c.ProfitabilityPoints + c.GrowthPoints + c.LeveragePoints + c.CashflowPoints
}

// Validate checks that thresholds are positive and the rubric fits in 100 points.
func (c Config) Validate() error {
	if c.MinMarketCap <= 0 {
		return fmt.Errorf("scoring.min_market_cap must be positive")
	}
	if c.MinFloatPct <= 0 || c.MinFloatPct > 100 {
		return fmt.Errorf("scoring.min_float_pct must be in (0, 100]")
	}
	if c.MinAvgDollarVolume <= 0 {
		return fmt.Errorf("scoring.min_avg_dollar_volume must be positive")
	}
	if c.MarketCapBasePoints > c.MarketCapPoints {
		return fmt.Errorf("scoring.market_cap_base_points exceeds market_cap_points")
	}
	for name, v := range map[string]float64{
		"market_cap_points":    c.MarketCapPoints,
		"float_points":         c.FloatPoints,
		"liquidity_points":     c.LiquidityPoints,
		"profitability_points": c.ProfitabilityPoints,
		"growth_points":        c.GrowthPoints,
		"leverage_points":      c.LeveragePoints,
		"cashflow_points":      c.CashflowPoints,
	} {
		if v < 0 {
			return fmt.Errorf("scoring.%s must not be negative", name)
		}
	}
	if c.MaxScore() > 100 {
		return fmt.Errorf("scoring points sum to %.1f, above 100", c.MaxScore())
	}
	return nil
}
