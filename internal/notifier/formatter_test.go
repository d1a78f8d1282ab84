package notifier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/model"
)

func TestFormatCrossReport(t *testing.T) {
	d := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	rep := &analysis.CrossReport{
		Index: "sp500", AsOf: d, LookbackDays: 180, WindowDays: 7,
		Alerts: []analysis.CrossAlert{
			{CrossEvent: model.CrossEvent{Ticker: "AT&T", Date: d, Direction: model.Golden}, Name: "A<B>", LastPrice: model.Float(12.5), MarketCap: model.Float(150e9)},
			{CrossEvent: model.CrossEvent{Ticker: "ZION", Date: d, Direction: model.Death}},
		},
		Skipped: []string{"X"},
		Dataset: model.Dataset{Synthetic: true, Warning: "sample data"},
	}
	msg := FormatCrossReport(rep)

	assert.Contains(t, msg, "| 2025-02-14 | last 7 days")
	assert.Contains(t, msg, "🟢 <b>AT&amp;T</b> golden cross on 2025-02-14")
	assert.Contains(t, msg, "A&lt;B&gt; | price 12.50 | RSI n/a")
	assert.Contains(t, msg, "cap $150.0B")
	assert.Contains(t, msg, "🔴 <b>ZION</b> death cross")
	assert.Contains(t, msg, "Skipped 1 tickers")
	assert.Contains(t, msg, "⚠️ <i>sample data</i>")
}

func TestFormatCandidates(t *testing.T) {
	rep := &analysis.CandidateReport{
		Universe: "russell1000", Members: "sp500", Evaluated: 3,
		Candidates: []model.CandidateRecord{
			{Ticker: "SMCI", Score: 82.3, CriteriaMet: true, MarketCap: model.Float(30e9), FloatSharesPct: model.Float(90)},
			{Ticker: "VICI", Score: 40, Incomplete: true, MissingMetrics: []string{"profit_margin", "roe"}},
			{Ticker: "TPG", Score: 10},
		},
	}
	msg := FormatCandidates(rep, 2)

	assert.Contains(t, msg, "1. ✅ <b>SMCI</b> 82.3 | cap $30.0B | float 90%")
	assert.Contains(t, msg, "missing: profit_margin, roe")
	assert.NotContains(t, msg, "TPG")
	assert.NotContains(t, msg, "⚠️")
}

func TestFormatChanges(t *testing.T) {
	rep := &analysis.ChangesReport{Changes: []model.IndexChange{
		{Date: time.Date(2024, 12, 16, 0, 0, 0, 0, time.UTC), Symbol: "TPG", Name: "TPG Inc.", Type: model.Added},
		{Date: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), Symbol: "OLD", Type: model.Removed, DateApproximate: true},
	}}
	msg := FormatChanges(rep, 0)
	assert.Contains(t, msg, "2024-12-16 + <b>TPG</b> TPG Inc.")
	assert.Contains(t, msg, "2001? − <b>OLD</b>")
}
