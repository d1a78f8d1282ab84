package constituents

import (
	"errors"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"TradeIdeas/internal/model"
)

// ErrTableNotFound means the page no longer carries a recognisable table.
var ErrTableNotFound = errors.New("table not found")

var (
	footnoteRe   = regexp.MustCompile(`\[.*?\]`)
	symbolJunkRe = regexp.MustCompile(`[^\w.-]`)
	tickerNameRe = regexp.MustCompile(`([A-Z]{1,5})\s*\(([^)]+)\)`)
	bareTickerRe = regexp.MustCompile(`\b([A-Z]{1,5})\b`)
	yearRe       = regexp.MustCompile(`(\d{4})`)
	validTicker  = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z])?$`)
)

var (
	symbolHeaders = []string{"symbol", "ticker", "epic"}
	nameHeaders   = []string{"security", "company", "name"}
)

var changeDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01/02/2006",
	"2 January 2006",
	"2 Jan 2006",
}

func cellText(s *goquery.Selection) string {
	return strings.TrimSpace(footnoteRe.ReplaceAllString(s.Text(), ""))
}

// CleanSymbol strips footnotes and anything that is not a word character, dot or dash.
func CleanSymbol(s string) string {
	s = footnoteRe.ReplaceAllString(s, "")
	return strings.ToUpper(symbolJunkRe.ReplaceAllString(strings.TrimSpace(s), ""))
}

func headerTexts(table *goquery.Selection) []string {
	var headers []string
	table.Find("tr").First().Find("th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.ToLower(cellText(th)))
	})
	return headers
}

func columnFor(headers []string, candidates []string, fallback int) int {
	for _, want := range candidates {
		for i, h := range headers {
			if strings.Contains(h, want) {
				return i
			}
		}
	}
	return fallback
}

func hasHeader(headers []string, candidates []string) bool {
	return columnFor(headers, candidates, -1) >= 0
}

// findConstituentTable prefers the table with the index's id, then the first wikitable
// whose header names a symbol column.
func findConstituentTable(doc *goquery.Document, idx Index) *goquery.Selection {
	if idx.TableID != "" {
		if t := doc.Find("table#" + idx.TableID).First(); t.Length() > 0 {
			return t
		}
	}
	var found *goquery.Selection
	doc.Find("table.wikitable").EachWithBreak(func(_ int, t *goquery.Selection) bool {
		if hasHeader(headerTexts(t), symbolHeaders) {
			found = t
			return false
		}
		return true
	})
	return found
}

// ParseConstituents extracts the index members from a Wikipedia page.
func ParseConstituents(doc *goquery.Document, idx Index) ([]model.Constituent, error) {
	table := findConstituentTable(doc, idx)
	if table == nil {
		return nil, ErrTableNotFound
	}
	headers := headerTexts(table)
	symCol := columnFor(headers, symbolHeaders, idx.SymbolCol)
	nameCol := columnFor(headers, nameHeaders, idx.NameCol)
	if nameCol == symCol {
		nameCol = idx.NameCol
	}
	sectorCol := columnFor(headers, []string{"sector"}, -1)

	seen := make(map[string]bool)
	var out []model.Constituent
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("td").Length() == 0 {
			return
		}
		cells := row.Children().Filter("td, th")
		if symCol >= cells.Length() {
			return
		}
		symbol := CleanSymbol(cells.Eq(symCol).Text())
		if symbol == "" {
			return
		}
		if idx.Suffix != "" && !strings.HasSuffix(symbol, idx.Suffix) {
			symbol += idx.Suffix
		}
		if seen[symbol] {
			return
		}
		seen[symbol] = true
		c := model.Constituent{Symbol: symbol}
		if nameCol >= 0 && nameCol < cells.Length() {
			c.Name = cellText(cells.Eq(nameCol))
		}
		if sectorCol >= 0 && sectorCol < cells.Length() {
			c.Sector = cellText(cells.Eq(sectorCol))
		}
		out = append(out, c)
	})
	if len(out) == 0 {
		return nil, ErrTableNotFound
	}
	return out, nil
}

// ParseChangeDate tries the known layouts, then falls back to 1 January of the first
// four-digit year in the text. approximate reports the fallback.
func ParseChangeDate(text string) (date time.Time, approximate bool, ok bool) {
	text = strings.TrimSpace(footnoteRe.ReplaceAllString(text, ""))
	for _, layout := range changeDateLayouts {
		if d, err := time.Parse(layout, text); err == nil {
			return d, false, true
		}
	}
	if m := yearRe.FindStringSubmatch(text); m != nil {
		year, _ := strconv.Atoi(m[1])
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), true, true
	}
	return time.Time{}, false, false
}

type tickerName struct{ symbol, name string }

// parseStockInfo reads "TICKER (Company)" pairs, or bare tickers when there are none.
func parseStockInfo(text string) []tickerName {
	text = footnoteRe.ReplaceAllString(text, "")
	var out []tickerName
	if matches := tickerNameRe.FindAllStringSubmatch(text, -1); len(matches) > 0 {
		for _, m := range matches {
			out = append(out, tickerName{symbol: strings.TrimSpace(m[1]), name: strings.TrimSpace(m[2])})
		}
		return out
	}
	for _, m := range bareTickerRe.FindAllStringSubmatch(text, -1) {
		out = append(out, tickerName{symbol: m[1]})
	}
	return out
}

func isChangesTable(t *goquery.Selection) bool {
	headers := headerTexts(t)
	return hasHeader(headers, []string{"date"}) &&
		(hasHeader(headers, []string{"added"}) || hasHeader(headers, []string{"removed"}))
}

// ParseChanges reads the historical additions/removals table. Rows that share a date
// through rowspan inherit the previous row's date and reason.
func ParseChanges(doc *goquery.Document) ([]model.IndexChange, error) {
	var tables []*goquery.Selection
	if t := doc.Find("table#changes").First(); t.Length() > 0 {
		tables = append(tables, t)
	} else {
		doc.Find("table.wikitable").Each(func(_ int, t *goquery.Selection) {
			if isChangesTable(t) {
				tables = append(tables, t)
			}
		})
	}
	if len(tables) == 0 {
		return nil, ErrTableNotFound
	}

	var changes []model.IndexChange
	for _, table := range tables {
		var (
			lastDate   time.Time
			lastApprox bool
			lastReason string
		)
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			if row.Find("td").Length() == 0 {
				return
			}
			cells := row.Children().Filter("td, th")
			texts := make([]string, cells.Length())
			cells.Each(func(i int, c *goquery.Selection) { texts[i] = cellText(c) })

			var added, removed []tickerName
			date, approx, reason := lastDate, lastApprox, lastReason
			switch {
			case len(texts) >= 6:
				d, a, ok := ParseChangeDate(texts[0])
				if !ok {
					return
				}
				date, approx, reason = d, a, texts[5]
				added = pair(texts[1], texts[2])
				removed = pair(texts[3], texts[4])
			case len(texts) >= 4:
				if d, a, ok := ParseChangeDate(texts[0]); ok && !validTicker.MatchString(texts[0]) {
					date, approx, reason = d, a, texts[3]
					added = parseStockInfo(texts[1])
					removed = parseStockInfo(texts[2])
				} else if !lastDate.IsZero() {
					added = pair(texts[0], texts[1])
					removed = pair(texts[2], texts[3])
				} else {
					return
				}
			default:
				return
			}
			lastDate, lastApprox, lastReason = date, approx, reason

			for _, tn := range added {
				changes = appendChange(changes, date, approx, tn, model.Added, reason)
			}
			for _, tn := range removed {
				changes = appendChange(changes, date, approx, tn, model.Removed, reason)
			}
		})
	}
	if len(changes) == 0 {
		return nil, ErrTableNotFound
	}
	return dedupeChanges(changes), nil
}

func pair(symbol, name string) []tickerName {
	symbol = CleanSymbol(symbol)
	if symbol == "" {
		return nil
	}
	return []tickerName{{symbol: symbol, name: name}}
}

func appendChange(changes []model.IndexChange, date time.Time, approx bool, tn tickerName, typ model.ChangeType, reason string) []model.IndexChange {
	symbol := strings.ToUpper(strings.TrimSpace(tn.symbol))
	if !validTicker.MatchString(symbol) {
		return changes
	}
	return append(changes, model.IndexChange{
		Date:            date,
		Symbol:          symbol,
		Name:            strings.TrimSpace(footnoteRe.ReplaceAllString(tn.name, "")),
		Type:            typ,
		Reason:          reason,
		DateApproximate: approx,
	})
}

// dedupeChanges drops repeated (date, symbol, type) rows and sorts newest first.
func dedupeChanges(changes []model.IndexChange) []model.IndexChange {
	seen := make(map[string]bool, len(changes))
	out := changes[:0]
	for _, c := range changes {
		key := c.Date.Format(model.DateLayout) + "|" + c.Symbol + "|" + string(c.Type)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}
