package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"TradeIdeas/internal/model"
)

type yahooRaw struct {
	Raw *float64 `json:"raw"`
}

// yahooQuoteSummary holds the quoteSummary modules used for candidate scoring.
type yahooQuoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName  string   `json:"longName"`
				ShortName string   `json:"shortName"`
				MarketCap yahooRaw `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				TrailingPE yahooRaw `json:"trailingPE"`
				ForwardPE  yahooRaw `json:"forwardPE"`
				MarketCap  yahooRaw `json:"marketCap"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				FloatShares       yahooRaw `json:"floatShares"`
				SharesOutstanding yahooRaw `json:"sharesOutstanding"`
				ForwardPE         yahooRaw `json:"forwardPE"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				ProfitMargins  yahooRaw `json:"profitMargins"`
				ReturnOnEquity yahooRaw `json:"returnOnEquity"`
				RevenueGrowth  yahooRaw `json:"revenueGrowth"`
				EarningsGrowth yahooRaw `json:"earningsGrowth"`
				DebtToEquity   yahooRaw `json:"debtToEquity"`
				FreeCashflow   yahooRaw `json:"freeCashflow"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

func pct(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return model.Float(*v * 100)
}

func firstOf(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

// FetchFundamentals loads the price, summaryDetail, defaultKeyStatistics and
// financialData modules. Ratios are converted to percentages.
func (f *YahooFetcher) FetchFundamentals(ctx context.Context, ticker string) (*model.Fundamentals, error) {
	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=price,summaryDetail,defaultKeyStatistics,financialData",
		f.BaseURL, url.PathEscape(f.yahooSymbol(ticker)))

	body, err := f.Client.Get(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w", ticker, err)
	}
	var qs yahooQuoteSummary
	if err := json.Unmarshal(body, &qs); err != nil {
		return nil, fmt.Errorf("yahoo quote %s: decode: %w: %v", ticker, model.ErrSourceUnavailable, err)
	}
	if qs.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yahoo quote %s: %w: %s", ticker, model.ErrSourceUnavailable, qs.QuoteSummary.Error.Description)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo quote %s: %w: no data returned", ticker, model.ErrSourceUnavailable)
	}

	r := qs.QuoteSummary.Result[0]
	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}
	return &model.Fundamentals{
		Ticker:            ticker,
		Name:              name,
		MarketCap:         firstOf(r.Price.MarketCap.Raw, r.SummaryDetail.MarketCap.Raw),
		FloatShares:       r.DefaultKeyStatistics.FloatShares.Raw,
		SharesOutstanding: r.DefaultKeyStatistics.SharesOutstanding.Raw,
		ProfitMarginPct:   pct(r.FinancialData.ProfitMargins.Raw),
		ReturnOnEquityPct: pct(r.FinancialData.ReturnOnEquity.Raw),
		RevenueGrowthPct:  pct(r.FinancialData.RevenueGrowth.Raw),
		EarningsGrowthPct: pct(r.FinancialData.EarningsGrowth.Raw),
		DebtToEquity:      r.FinancialData.DebtToEquity.Raw,
		FreeCashflow:      r.FinancialData.FreeCashflow.Raw,
		TrailingPE:        r.SummaryDetail.TrailingPE.Raw,
		ForwardPE:         firstOf(r.SummaryDetail.ForwardPE.Raw, r.DefaultKeyStatistics.ForwardPE.Raw),
	}, nil
}
