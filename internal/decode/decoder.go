package decode

import (
	"fmt"
	"strings"
)

// withoutRecommendation spellings, longest first. Their slashes and
// dashes would otherwise read as committee transitions.
var withoutRecommendation = []string{"/w/o rec/a-", "w/o rec/a-", "/w/o rec-", "w/o rec-"}

// Normalize rewrites the "without recommendation" forms to " no-rec -"
// so the remaining text splits into ordinary pieces.
func Normalize(actioncode string) string {
	for _, form := range withoutRecommendation {
		actioncode = strings.ReplaceAll(actioncode, form, " no-rec -")
	}
	return actioncode
}

// Pieces splits one legislative day's text on whitespace and trims the
// trailing "-" connectors the site puts between actions.
func Pieces(text string) []string {
	var pieces []string
	for _, field := range strings.Fields(text) {
		if piece := strings.TrimRight(field, "-"); piece != "" {
			pieces = append(pieces, piece)
		}
	}
	return pieces
}

// DecodeFullHistory decodes a bill's whole action code, per
// https://www.nmlegis.gov/Legislation/Action_Abbreviations
// It never fails: pieces it cannot make sense of are left out.
func DecodeFullHistory(actioncode string) Result {
	var (
		res  Result
		st   State
		last *Token
	)

	for tok := range Tokens(Normalize(actioncode)) {
		if strings.TrimSpace(tok.Text) != "" {
			last = &tok
		}
		st.Day = tok.Day

		pieces := Pieces(tok.Text)
		for len(pieces) > 0 && !st.Signed {
			tr := Step(st, pieces)
			st = tr.State
			res.History = append(res.History, tr.Entries...)
			res.Warnings = append(res.Warnings, tr.Warnings...)
			pieces = pieces[tr.Consumed:]
		}
		if st.Signed {
			break
		}
	}

	res.CurrentLocation = st.Location
	res.LastAction = lastAction(res.History, last)
	return res
}

// lastAction summarizes the most recent action. When no entry was
// decoded, the last token's text is expanded through the abbreviation
// table instead.
func lastAction(history []HistoryEntry, last *Token) string {
	if n := len(history); n > 0 {
		return fmt.Sprintf("Legislative Day %d: %s", history[n-1].Day, history[n-1].Description)
	}
	if last == nil {
		return ""
	}
	return fmt.Sprintf("Legislative Day %d: %s", last.Day, Expand(strings.TrimSpace(last.Text)))
}
