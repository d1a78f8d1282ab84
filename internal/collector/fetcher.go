package collector

import (
	"context"
	"time"

	"TradeIdeas/internal/model"
)

// Fetcher defines the interface for fetching market data.
type Fetcher interface {
	// FetchDailyPrices returns daily closes between from and to, both inclusive.
	FetchDailyPrices(ctx context.Context, ticker string, from, to time.Time) (*model.PriceSeries, error)
	// FetchFundamentals returns point-in-time company metrics.
	FetchFundamentals(ctx context.Context, ticker string) (*model.Fundamentals, error)
	Name() string
}
