package notifier

import (
	"fmt"
	"html"
	"strings"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/model"
)

func num(v *float64, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}

func billions(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("$%.1fB", *v/1e9)
}

func datasetNote(b *strings.Builder, ds model.Dataset) {
	if ds.Synthetic {
		b.WriteString(fmt.Sprintf("\n⚠️ <i>%s</i>\n", html.EscapeString(ds.Warning)))
	}
}

// FormatCrossReport formats a cross scan into a Telegram message.
func FormatCrossReport(rep *analysis.CrossReport) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>MA crosses</b> | %s | %s | last %d days\n\n",
		html.EscapeString(rep.Index), rep.AsOf.Format(model.DateLayout), rep.WindowDays))

	if len(rep.Alerts) == 0 {
		b.WriteString("No golden or death crosses in the window.\n")
	}
	for _, a := range rep.Alerts {
		icon := "🟢"
		if a.Direction == model.Death {
			icon = "🔴"
		}
		name := a.Name
		if name == "" {
			name = a.Ticker
		}
		b.WriteString(fmt.Sprintf("%s <b>%s</b> %s cross on %s\n", icon, html.EscapeString(a.Ticker), a.Direction, a.Date.Format(model.DateLayout)))
		b.WriteString(fmt.Sprintf("   %s | price %s | RSI %s\n", html.EscapeString(name), num(a.LastPrice, "%.2f"), num(a.RSI, "%.0f")))
		b.WriteString(fmt.Sprintf("   MA50 %s / MA200 %s | PE %s (fwd %s) | cap %s\n",
			num(a.ShortMA, "%.2f"), num(a.LongMA, "%.2f"), num(a.TrailingPE, "%.1f"), num(a.ForwardPE, "%.1f"), billions(a.MarketCap)))
	}
	if len(rep.Skipped) > 0 {
		b.WriteString(fmt.Sprintf("\nSkipped %d tickers without data.\n", len(rep.Skipped)))
	}
	datasetNote(&b, rep.Dataset)
	return b.String()
}

// FormatCandidates lists the top n candidates.
func FormatCandidates(rep *analysis.CandidateReport, n int) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🏁 <b>Promotion candidates</b> | %s not in %s\n\n",
		html.EscapeString(rep.Universe), html.EscapeString(rep.Members)))

	if len(rep.Candidates) == 0 {
		b.WriteString("No candidates scored.\n")
	}
	for i, c := range rep.Candidates {
		if n > 0 && i >= n {
			break
		}
		mark := "  "
		if c.CriteriaMet {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%d. %s <b>%s</b> %.1f | cap %s | float %s%%\n",
			i+1, mark, html.EscapeString(c.Ticker), c.Score, billions(c.MarketCap), num(c.FloatSharesPct, "%.0f")))
		if c.Incomplete {
			b.WriteString(fmt.Sprintf("      missing: %s\n", html.EscapeString(strings.Join(c.MissingMetrics, ", "))))
		}
	}
	b.WriteString(fmt.Sprintf("\nEvaluated %d, skipped %d.\n", rep.Evaluated, len(rep.Skipped)))
	datasetNote(&b, rep.Dataset)
	return b.String()
}

// FormatChanges lists the n most recent index changes.
func FormatChanges(rep *analysis.ChangesReport, n int) string {
	var b strings.Builder
	b.WriteString("🔄 <b>Recent S&amp;P 500 changes</b>\n\n")
	for i, c := range rep.Changes {
		if n > 0 && i >= n {
			break
		}
		sign := "+"
		if c.Type == model.Removed {
			sign = "−"
		}
		date := c.Date.Format(model.DateLayout)
		if c.DateApproximate {
			date = c.Date.Format("2006") + "?"
		}
		b.WriteString(fmt.Sprintf("%s %s <b>%s</b> %s\n", date, sign, html.EscapeString(c.Symbol), html.EscapeString(c.Name)))
	}
	datasetNote(&b, rep.Dataset)
	return b.String()
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"• /crosses [index] [lookback days]\n" +
		"• /candidates [count]\n" +
		"• /changes [count]"
}
