package model

import "time"

// RebasePoint is one observation of a rebased series.
type RebasePoint struct {
	Date       time.Time `json:"date"`
	OffsetDays int       `json:"offset_days"`
	Value      float64   `json:"value"`
}

// RebaseFrame is a price series normalised to 1.0 at its anchor trading day.
type RebaseFrame struct {
	Ticker           string        `json:"ticker"`
	AnchorDate       time.Time     `json:"anchor_date"`
	AnchorTradingDay time.Time     `json:"anchor_trading_day"`
	AnchorPrice      float64       `json:"anchor_price"`
	Points           []RebasePoint `json:"points"`
}

// ValueAt returns the rebased value at the given offset from the anchor trading day.
func (f *RebaseFrame) ValueAt(offset int) (float64, bool) {
	for _, p := range f.Points {
		if p.OffsetDays == offset {
			return p.Value, true
		}
	}
	return 0, false
}

// PerformanceSummary condenses a RebaseFrame.
type PerformanceSummary struct {
	Ticker string `json:"ticker"`
	// PreWindowReturn is the window-start value minus one.
	PreWindowReturn float64 `json:"pre_window_return"`
	// PostWindowReturn is the window-end value minus one.
	PostWindowReturn float64 `json:"post_window_return"`
	// RunUpReturn is the move from window start into the anchor.
	RunUpReturn          float64 `json:"run_up_return"`
	TotalReturn          float64 `json:"total_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
}
