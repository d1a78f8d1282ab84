package model

import "time"

// Constituent is one member of an index.
type Constituent struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Sector string `json:"sector,omitempty"`
}

// ChangeType tells whether a symbol entered or left an index.
type ChangeType string

const (
	Added   ChangeType = "Added"
	Removed ChangeType = "Removed"
)

// IndexChange is one row of an index's historical change log.
type IndexChange struct {
	Date   time.Time  `json:"date"`
	Symbol string     `json:"symbol"`
	Name   string     `json:"name"`
	Type   ChangeType `json:"type"`
	Sector string     `json:"sector,omitempty"`
	Reason string     `json:"reason,omitempty"`
	// DateApproximate is set when only the year could be parsed.
	DateApproximate bool `json:"date_approximate,omitempty"`
}

// Dataset tags data returned to a consumer with its provenance.
type Dataset struct {
	Source    string    `json:"source"`
	Synthetic bool      `json:"synthetic"`
	Warning   string    `json:"warning,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}
