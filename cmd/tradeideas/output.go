package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/tidwall/pretty"
	"golang.org/x/term"

	"TradeIdeas/internal/analysis"
	"TradeIdeas/internal/constituents"
	"TradeIdeas/internal/model"
)

// printJSON writes v as indented JSON, coloured when stdout is a terminal.
func printJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	out := pretty.Pretty(data)
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		out = pretty.Color(out, nil)
	}
	_, err = w.Write(out)
	return err
}

func opt(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func warnDataset(w io.Writer, ds model.Dataset) {
	if ds.Synthetic {
		fmt.Fprintf(w, "\nWARNING: %s\n", ds.Warning)
	}
}

func printIndices(w io.Writer, list []constituents.Index) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tSOURCE")
	for _, idx := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", idx.Key, idx.Name, idx.URL)
	}
	tw.Flush()
}

func printConstituents(w io.Writer, res *analysis.ConstituentsResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SYMBOL\tNAME\tSECTOR")
	for _, m := range res.Members {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Symbol, m.Name, m.Sector)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d members of %s\n", len(res.Members), res.Index.Name)
	warnDataset(w, res.Dataset)
}

func printCrosses(w io.Writer, rep *analysis.CrossReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTICKER\tCROSS\tNAME\tPRICE\tMA50\tMA200\tRSI\tPE\tFWD PE")
	for _, a := range rep.Alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.Date.Format(model.DateLayout), a.Ticker, a.Direction, a.Name,
			opt(a.LastPrice, "%.2f"), opt(a.ShortMA, "%.2f"), opt(a.LongMA, "%.2f"),
			opt(a.RSI, "%.0f"), opt(a.TrailingPE, "%.1f"), opt(a.ForwardPE, "%.1f"))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d crosses in %s within %d days of %s", len(rep.Alerts), rep.Index, rep.WindowDays, rep.AsOf.Format(model.DateLayout))
	if len(rep.Skipped) > 0 {
		fmt.Fprintf(w, " (skipped: %s)", strings.Join(rep.Skipped, ", "))
	}
	fmt.Fprintln(w)
	warnDataset(w, rep.Dataset)
}

func printCandidates(w io.Writer, rep *analysis.CandidateReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTICKER\tSCORE\tCRITERIA\tCAP ($B)\tFLOAT %\tDOLLAR VOL ($M)\tMISSING")
	for i, c := range rep.Candidates {
		capB := "-"
		if c.MarketCap != nil {
			capB = fmt.Sprintf("%.1f", *c.MarketCap/1e9)
		}
		vol := "-"
		if c.AvgDollarVolume != nil {
			vol = fmt.Sprintf("%.1f", *c.AvgDollarVolume/1e6)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%v\t%s\t%s\t%s\t%s\n",
			i+1, c.Ticker, c.Score, c.CriteriaMet, capB, opt(c.FloatSharesPct, "%.0f"), vol, strings.Join(c.MissingMetrics, ","))
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d evaluated from %s not in %s\n", rep.Evaluated, rep.Universe, rep.Members)
	warnDataset(w, rep.Dataset)
}

func printChanges(w io.Writer, rep *analysis.ChangesReport, limit int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTYPE\tSYMBOL\tNAME\tREASON")
	for i, c := range rep.Changes {
		if limit > 0 && i >= limit {
			break
		}
		date := c.Date.Format(model.DateLayout)
		if c.DateApproximate {
			date += "~"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", date, c.Type, c.Symbol, c.Name, c.Reason)
	}
	tw.Flush()
	warnDataset(w, rep.Dataset)
}

func pct(v float64) string { return fmt.Sprintf("%+.1f%%", v*100) }

func printPerformance(w io.Writer, perf *analysis.ChangePerformance) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tSYMBOL\tPRE\tRUN-UP\tPOST\tTOTAL\tVOL")
	for _, r := range perf.Results {
		s := r.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%.2f\n", r.Change.Type, r.Change.Symbol,
			pct(s.PreWindowReturn), pct(s.RunUpReturn), pct(s.PostWindowReturn), pct(s.TotalReturn), s.AnnualizedVolatility)
	}
	for _, typ := range []model.ChangeType{model.Added, model.Removed} {
		a, ok := perf.Averages[typ]
		if !ok {
			continue
		}
		fmt.Fprintf(tw, "%s avg\t(%d)\t%s\t%s\t%s\t%s\t%.2f\n", typ, a.Count,
			pct(a.PreWindowReturn), pct(a.RunUpReturn), pct(a.PostWindowReturn), pct(a.TotalReturn), a.AnnualizedVolatility)
	}
	tw.Flush()
	for _, s := range perf.Skipped {
		fmt.Fprintf(w, "skipped %s: %s\n", s.Symbol, s.Reason)
	}
	warnDataset(w, perf.Dataset)
}

func printRebase(w io.Writer, res *analysis.RebaseResult) {
	f, s := res.Frame, res.Summary
	fmt.Fprintf(w, "%s anchored %s on %s at %.2f (%d points)\n", f.Ticker,
		f.AnchorDate.Format(model.DateLayout), f.AnchorTradingDay.Format(model.DateLayout), f.AnchorPrice, len(f.Points))
	fmt.Fprintf(w, "pre %s  run-up %s  post %s  total %s  vol %.2f\n",
		pct(s.PreWindowReturn), pct(s.RunUpReturn), pct(s.PostWindowReturn), pct(s.TotalReturn), s.AnnualizedVolatility)
}
