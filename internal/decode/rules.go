package decode

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jjenkins/billtracker/internal/bill"
)

// comm matches a committee (or chamber) code in a transition piece.
const comm = `([A-Z][A-Z&]{1,6})`

var (
	dayMarkerPat     = regexp.MustCompile(`^\[\s*(\d+)\s*\]$`)
	dpAmendedToPat   = regexp.MustCompile(`^DP/a-` + comm + `$`)
	committeeSubPat  = regexp.MustCompile(`^DNP-CS/DP-` + comm + `$`)
	dpToPat          = regexp.MustCompile(`^DP-` + comm + `$`)
	passedPat        = regexp.MustCompile(`^PASSED/([HS])(?:$|[^A-Za-z])`)
	signedPat        = regexp.MustCompile(`^SGND(?:$|\()`)
	withdrawnPat     = regexp.MustCompile(`^w/drn-` + comm + `$`)
	notPrintedPat    = regexp.MustCompile(`^prntd-` + comm + `$`)
	pairPat          = regexp.MustCompile(`^` + comm + `-` + comm + `$`)
	sentToPat        = regexp.MustCompile(`-` + comm + `$`)
	committeeCodePat = regexp.MustCompile(`^[HS]?[A-Z]{2,5}$`)
)

// State is the decoder's position in a bill's history.
type State struct {
	Day      int
	Location string
	Signed   bool
}

// match is what a rule's matcher captured at the current piece.
type match struct {
	groups   []string
	consumed int
}

// A rule pairs a matcher with the handler that turns a match into
// history entries. check, when set, softly validates a match: an error
// becomes a warning and the next rule is tried.
type rule struct {
	name  string
	match func(pieces []string) (match, bool)
	check func(m match) error
	apply func(st State, m match) (State, []HistoryEntry)
}

// Transition is the result of feeding one piece to the decoder.
type Transition struct {
	State    State
	Entries  []HistoryEntry
	Consumed int
	Rule     string
	Warnings []string
}

// rules is ordered; the first matching rule wins.
var rules = []rule{
	{
		name:  "day-marker",
		match: regexMatch(dayMarkerPat),
		apply: func(st State, m match) (State, []HistoryEntry) {
			st.Day = parseDay(m.groups[1])
			return st, nil
		},
	},
	{
		name:  "do-pass-amended-to",
		match: regexMatch(dpAmendedToPat),
		apply: func(st State, m match) (State, []HistoryEntry) {
			return moveTo(st, m.groups[1],
				entry(KindDoPass, "Do pass as amended"+by(st.Location), st.Location))
		},
	},
	{
		name:  "committee-sub-do-pass-to",
		match: regexMatch(committeeSubPat),
		apply: func(st State, m match) (State, []HistoryEntry) {
			return moveTo(st, m.groups[1],
				entry(KindDoPass, "Committee sub do pass"+by(st.Location), st.Location))
		},
	},
	{
		name:  "do-pass-to",
		match: regexMatch(dpToPat),
		apply: func(st State, m match) (State, []HistoryEntry) {
			return moveTo(st, m.groups[1],
				entry(KindDoPass, "Do pass"+by(st.Location), st.Location))
		},
	},
	{
		name:  "do-pass",
		match: exactMatch("DP"),
		apply: func(st State, m match) (State, []HistoryEntry) {
			return st, []HistoryEntry{entry(KindDoPass, "Do pass"+by(st.Location), st.Location)}
		},
	},
	{
		name:  "no-recommendation",
		match: exactMatch("no-rec"),
		apply: func(st State, m match) (State, []HistoryEntry) {
			return st, []HistoryEntry{entry(KindNoRecommendation, "No recommendation", st.Location)}
		},
	},
	{
		name:  "passed",
		match: regexMatch(passedPat),
		apply: func(st State, m match) (State, []HistoryEntry) {
			chamber := m.groups[1]
			st.Location = bill.OtherChamber(chamber)
			return st, []HistoryEntry{entry(KindPassed, "Passed "+bill.ChamberName(chamber), chamber)}
		},
	},
	{
		name: "signed",
		match: func(pieces []string) (match, bool) {
			if byGovernor(pieces) || !signedPat.MatchString(pieces[0]) {
				return match{}, false
			}
			return match{groups: pieces[:1]}, true
		},
		apply: func(st State, m match) (State, []HistoryEntry) {
			st.Location = LocationSigned
			st.Signed = true
			return st, []HistoryEntry{entry(KindSigned, "Signed by Governor")}
		},
	},
	{
		name:  "withdrawn-to",
		match: regexMatch(withdrawnPat),
		apply: func(st State, m match) (State, []HistoryEntry) {
			return moveTo(st, m.groups[1], entry(KindWithdrawn, "Withdrawn", st.Location))
		},
	},
	{
		name: "floor-detail",
		match: func(pieces []string) (match, bool) {
			if !strings.HasPrefix(pieces[0], "fl") {
				return match{}, false
			}
			return match{groups: pieces[:1]}, true
		},
		apply: func(st State, m match) (State, []HistoryEntry) {
			return st, nil
		},
	},
	{
		name:  "multi-committee",
		match: matchAssignment,
		check: func(m match) error {
			for _, code := range m.groups[1:] {
				if !committeeCodePat.MatchString(code) || actionWords[code] {
					return fmt.Errorf("%q: %q does not look like a committee code", m.groups[0], code)
				}
			}
			return nil
		},
		apply: func(st State, m match) (State, []HistoryEntry) {
			committees := m.groups[1 : len(m.groups)-1]
			target := m.groups[len(m.groups)-1]
			return moveTo(st, target,
				entry(KindAssigned, "Assigned "+strings.Join(committees, "/"), committees...))
		},
	},
	{
		name:  "not-printed-to",
		match: regexMatch(notPrintedPat),
		apply: func(st State, m match) (State, []HistoryEntry) {
			target := m.groups[1]
			st.Location = target
			return st, []HistoryEntry{entry(KindSent, "Not printed, sent to "+target, target)}
		},
	},
	{
		name: "committee-pair",
		match: func(pieces []string) (match, bool) {
			m, ok := regexMatch(pairPat)(pieces)
			if !ok || actionWords[m.groups[1]] {
				return match{}, false
			}
			return m, true
		},
		apply: func(st State, m match) (State, []HistoryEntry) {
			return moveTo(st, m.groups[2], entry(KindAssigned, "Assigned "+m.groups[1], m.groups[1]))
		},
	},
	{
		name:  "do-pass-amended",
		match: exactMatch("DP/a"),
		apply: func(st State, m match) (State, []HistoryEntry) {
			return st, []HistoryEntry{entry(KindDoPass, "Do pass as amended", st.Location)}
		},
	},
	{
		name:  "sent-to",
		match: regexMatch(sentToPat),
		apply: func(st State, m match) (State, []HistoryEntry) {
			return moveTo(st, m.groups[1])
		},
	},
	{
		name: "signed-by-governor",
		match: func(pieces []string) (match, bool) {
			if !byGovernor(pieces) {
				return match{}, false
			}
			return match{groups: pieces, consumed: len(pieces)}, true
		},
		apply: func(st State, m match) (State, []HistoryEntry) {
			desc := "Signed by Governor"
			if detail := strings.Join(m.groups[3:], " "); detail != "" {
				desc += " " + detail
			}
			st.Day = 0
			st.Location = LocationSigned
			st.Signed = true
			return st, []HistoryEntry{entry(KindSigned, desc)}
		},
	},
}

// Step feeds the pieces remaining in a legislative day to the rule
// table and returns the state after the first matching rule. A piece no
// rule matches is consumed without producing entries.
func Step(st State, pieces []string) Transition {
	if len(pieces) == 0 {
		return Transition{State: st}
	}
	if st.Signed {
		return Transition{State: st, Consumed: len(pieces)}
	}

	var warnings []string
	for _, r := range rules {
		m, ok := r.match(pieces)
		if !ok {
			continue
		}
		if r.check != nil {
			if err := r.check(m); err != nil {
				warnings = append(warnings, fmt.Sprintf("%s: %v", r.name, err))
				continue
			}
		}
		if m.consumed < 1 {
			m.consumed = 1
		}

		next, entries := r.apply(st, m)
		raw := strings.Join(pieces[:m.consumed], " ")
		for i := range entries {
			entries[i].Day = next.Day
			entries[i].RawCode = raw
			entries[i].LocationAfter = next.Location
		}
		return Transition{
			State:    next,
			Entries:  entries,
			Consumed: m.consumed,
			Rule:     r.name,
			Warnings: warnings,
		}
	}

	return Transition{State: st, Consumed: 1, Warnings: warnings}
}

func regexMatch(re *regexp.Regexp) func([]string) (match, bool) {
	return func(pieces []string) (match, bool) {
		groups := re.FindStringSubmatch(pieces[0])
		if groups == nil {
			return match{}, false
		}
		return match{groups: groups}, true
	}
}

func exactMatch(code string) func([]string) (match, bool) {
	return func(pieces []string) (match, bool) {
		if pieces[0] != code {
			return match{}, false
		}
		return match{groups: pieces[:1]}, true
	}
}

// matchAssignment recognizes NEWCOMM/COMM{/COMM}-CURCOMM. groups holds
// the whole piece, each slash-separated committee, then the committee
// after the last dash.
func matchAssignment(pieces []string) (match, bool) {
	piece := pieces[0]
	slash := strings.LastIndexByte(piece, '/')
	dash := strings.LastIndexByte(piece, '-')
	if slash < 0 || dash < 0 || slash > dash || dash == len(piece)-1 {
		return match{}, false
	}
	groups := []string{piece}
	groups = append(groups, strings.Split(piece[:dash], "/")...)
	groups = append(groups, piece[dash+1:])
	return match{groups: groups}, true
}

func byGovernor(pieces []string) bool {
	return len(pieces) >= 3 && pieces[0] == "SGND" && pieces[1] == "BY" && strings.HasPrefix(pieces[2], "GOV")
}

// actionWords are abbreviations for actions, calendars and statuses.
// They can sit where a committee code would but never name a committee.
var actionWords = map[string]bool{
	"API": true, "CA": true, "CC": true, "CS": true, "DEAD": true,
	"DNP": true, "DP": true, "FAILED": true, "HCAL": true, "HCAT": true,
	"HCNR": true, "HINT": true, "HPREF": true, "HTBL": true, "HZLM": true,
	"OCER": true, "PASSED": true, "PCA": true, "PCH": true, "PKVT": true,
	"PSGN": true, "PVET": true, "QSUB": true, "SCAL": true, "SCNR": true,
	"SGND": true, "SINT": true, "SPREF": true, "STBL": true, "SZLM": true,
	"TBLD": true, "VETO": true,
}

// moveTo sends the bill to target, appending a "Sent to" entry after
// any entries the rule already produced.
func moveTo(st State, target string, entries ...HistoryEntry) (State, []HistoryEntry) {
	st.Location = target
	return st, append(entries, entry(KindSent, "Sent to "+target, target))
}

func entry(kind Kind, desc string, committees ...string) HistoryEntry {
	var codes []string
	for _, c := range committees {
		if c != "" {
			codes = append(codes, c)
		}
	}
	return HistoryEntry{Kind: kind, Description: desc, Committees: codes}
}

func by(location string) string {
	if location == "" {
		return ""
	}
	return " by " + location
}
