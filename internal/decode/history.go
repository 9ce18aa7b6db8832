// Package decode turns the terse action codes shown on nmlegis.gov bill
// pages into a legislative history, a current location, and a guess at
// where a bill still has to go.
//
// Everything in this package is pure: no I/O, no logging, no shared
// mutable state. Soft problems with the input come back as Warnings.
package decode

import "fmt"

// Kind classifies a history entry for location tracking.
type Kind int

const (
	KindOther Kind = iota
	KindAssigned
	KindSent
	KindDoPass
	KindNoRecommendation
	KindPassed
	KindWithdrawn
	KindSigned
)

var kindNames = map[Kind]string{
	KindOther:            "other",
	KindAssigned:         "assigned",
	KindSent:             "sent",
	KindDoPass:           "do_pass",
	KindNoRecommendation: "no_recommendation",
	KindPassed:           "passed",
	KindWithdrawn:        "withdrawn",
	KindSigned:           "signed",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText lets Kind appear by name in JSON and YAML output.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown history kind %q", text)
}

// Location values that are not committee codes.
const (
	LocationSigned = "Signed"
	LocationHouse  = "H"
	LocationSenate = "S"
)

// HistoryEntry is one step of a bill's legislative history.
// LocationAfter is empty when the location is not known.
type HistoryEntry struct {
	Day           int      `json:"day" yaml:"day"`
	Description   string   `json:"description" yaml:"description"`
	RawCode       string   `json:"raw_code" yaml:"raw_code"`
	LocationAfter string   `json:"location_after,omitempty" yaml:"location_after,omitempty"`
	Kind          Kind     `json:"kind" yaml:"kind"`
	Committees    []string `json:"committees,omitempty" yaml:"committees,omitempty"`
}

// Result is a fully decoded action code. CurrentLocation is empty when
// it could not be determined.
type Result struct {
	CurrentLocation string         `json:"current_location,omitempty" yaml:"current_location,omitempty"`
	LastAction      string         `json:"last_action" yaml:"last_action"`
	History         []HistoryEntry `json:"history" yaml:"history"`
	Warnings        []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Signed reports whether the history ends with a signature.
func (r Result) Signed() bool {
	return r.CurrentLocation == LocationSigned
}
