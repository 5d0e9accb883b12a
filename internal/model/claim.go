package model

import (
	"fmt"
	"strings"
	"time"
)

// Claim is the statement a user wants verified. It is the root research question
// for one fact-check and is never modified once submitted.
type Claim struct {
	Text    string       `json:"text"`              // The claim text itself
	Context ClaimContext `json:"context,omitempty"` // Optional enrichment, never validated
}

// ClaimContext carries optional data used only to enrich prompts.
type ClaimContext struct {
	Location      *Location `json:"location,omitempty"`
	ReferenceDate time.Time `json:"reference_date,omitempty"`
	Language      string    `json:"language,omitempty"` // Answer language, e.g. "English", "Spanish"
}

// Location is the approximate position of the user submitting the claim
type Location struct {
	City        string  `json:"city,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
}

// IsZero reports whether no location field is set
func (l *Location) IsZero() bool {
	return l == nil || (l.City == "" && l.Country == "" && l.CountryCode == "" && l.Latitude == 0 && l.Longitude == 0)
}

// String renders the location as prompt lines, skipping empty fields
func (l *Location) String() string {
	if l.IsZero() {
		return ""
	}
	var lines []string
	if l.City != "" {
		lines = append(lines, "City: "+l.City)
	}
	if l.Country != "" {
		lines = append(lines, "Country: "+l.Country)
	}
	if l.CountryCode != "" {
		lines = append(lines, "Country code: "+l.CountryCode)
	}
	if l.Latitude != 0 {
		lines = append(lines, fmt.Sprintf("Latitude: %.4f", l.Latitude))
	}
	if l.Longitude != 0 {
		lines = append(lines, fmt.Sprintf("Longitude: %.4f", l.Longitude))
	}
	return strings.Join(lines, "\n")
}

// ExtractedClaim is a check-worthy sentence pulled out of a scanned page
type ExtractedClaim struct {
	Text      string `json:"text"`                // The sentence text
	Heuristic string `json:"heuristic,omitempty"` // Which extraction rule matched (e.g., "keyword:according to")
	Sentence  int    `json:"sentence,omitempty"`  // Sentence index in source (0-based)
}
