package constituents

import (
	"time"

	"TradeIdeas/internal/model"
)

// SampleWarning accompanies every dataset built from the samples below.
const SampleWarning = "live source unavailable; showing built-in sample data"

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// SampleChanges is a small fixed change history used when the live page cannot be read.
func SampleChanges() []model.IndexChange {
	return []model.IndexChange{
		{Date: day(2024, time.December, 16), Symbol: "TPG", Name: "TPG Inc.", Type: model.Added, Sector: "Financials", Reason: "Market capitalization change"},
		{Date: day(2024, time.December, 16), Symbol: "ZION", Name: "Zions Bancorporation", Type: model.Removed, Sector: "Financials", Reason: "Market capitalization change"},
		{Date: day(2024, time.September, 23), Symbol: "SMCI", Name: "Supermicro", Type: model.Added, Sector: "Information Technology", Reason: "Market capitalization change"},
		{Date: day(2024, time.September, 23), Symbol: "ETSY", Name: "Etsy", Type: model.Removed, Sector: "Consumer Discretionary", Reason: "Market capitalization change"},
	}
}

// SampleRussellUniverse lists a few Russell 1000 members outside the S&P 500.
func SampleRussellUniverse() []model.Constituent {
	return []model.Constituent{
		{Symbol: "SMCI", Name: "Super Micro Computer", Sector: "Information Technology"},
		{Symbol: "VICI", Name: "VICI Properties", Sector: "Real Estate"},
		{Symbol: "TPG", Name: "TPG Inc.", Sector: "Financials"},
	}
}
