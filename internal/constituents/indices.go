// Package constituents scrapes index membership and membership changes from Wikipedia.
package constituents

import (
	"fmt"
	"sort"
	"strings"
)

// Index describes where an index's constituent table lives and how to read it.
type Index struct {
	Key     string `json:"key"`
	Name    string `json:"name"`
	URL     string `json:"url"`
	TableID string `json:"-"`
	// SymbolCol and NameCol are used when header detection fails.
	SymbolCol int    `json:"-"`
	NameCol   int    `json:"-"`
	Suffix    string `json:"suffix,omitempty"`
}

// Registry keys.
const (
	SP500       = "sp500"
	Nasdaq100   = "nasdaq100"
	Russell1000 = "russell1000"
	FTSE100     = "ftse100"
	EuroStoxx50 = "eurostoxx50"
)

// DefaultIndices returns the supported indices keyed by registry key.
func DefaultIndices() map[string]Index {
	return map[string]Index{
		SP500: {
			Key: SP500, Name: "S&P 500",
			URL:     "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies",
			TableID: "constituents", SymbolCol: 0, NameCol: 1,
		},
		Nasdaq100: {
			Key: Nasdaq100, Name: "Nasdaq 100",
			URL:     "https://en.wikipedia.org/wiki/Nasdaq-100",
			TableID: "constituents", SymbolCol: 1, NameCol: 0,
		},
		Russell1000: {
			Key: Russell1000, Name: "Russell 1000",
			URL:       "https://en.wikipedia.org/wiki/Russell_1000_Index",
			SymbolCol: 1, NameCol: 0,
		},
		FTSE100: {
			Key: FTSE100, Name: "FTSE 100",
			URL:     "https://en.wikipedia.org/wiki/FTSE_100_Index",
			TableID: "constituents", SymbolCol: 1, NameCol: 0, Suffix: ".L",
		},
		EuroStoxx50: {
			Key: EuroStoxx50, Name: "Eurostoxx 50",
			URL:       "https://en.wikipedia.org/wiki/EURO_STOXX_50",
			SymbolCol: 0, NameCol: 2,
		},
	}
}

// Lookup resolves a registry key or display name, ignoring case, spaces and punctuation.
func Lookup(indices map[string]Index, name string) (Index, error) {
	want := squash(name)
	for _, idx := range indices {
		if squash(idx.Key) == want || squash(idx.Name) == want {
			return idx, nil
		}
	}
	return Index{}, fmt.Errorf("unknown index %q", name)
}

// Sorted lists indices by display name.
func Sorted(indices map[string]Index) []Index {
	out := make([]Index, 0, len(indices))
	for _, idx := range indices {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func squash(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
