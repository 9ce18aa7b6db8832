package decode

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations maps action codes to their expansions, from
// https://www.nmlegis.gov/Legislation/Action_Abbreviations
var abbreviations = map[string]string{
	"*":             "Emergency clause",
	"API.":          "Action postponed indefinitely",
	"CC":            "Conference committee (Senate and House fail to agree)",
	"CS":            "Committee substitute",
	"DEAD":          "Bill Has Died",
	"DNP nt adptd":  "Do Not Pass committee report NOT adopted",
	"DNP":           "Do Not Pass committee report adopted",
	"DP/a":          "Do Pass, as amended, committee report adopted.",
	"DP":            "Do Pass committee report adopted.",
	"E&E":           "The final authoritative version of a bill passed by both houses of the legislature",
	"FAILED/H":      "Failed passage in House",
	"FAILED/S":      "Failed passage in Senate",
	"fl/a":          "Floor amendment adopted. (fl/aaa - three floor amendments adopted.)",
	"FL/":           "Floor substitute",
	"germane":       "Bills which fall within the purview of a 30-day session.",
	"h/cncrd":       "House has concurred in Senate amendments on a House bill",
	"h/fld cncr":    "House has failed to concur in Senate amendments on a House bill. The House then sends a message requesting the Senate to recede from its amendments.",
	"HCAL":          "House Calendar",
	"HCAT":          "House Temporary Calendar",
	"HCNR":          "House Concurrence Calendar",
	"HCW":           "Committee of the Whole",
	"HINT":          "House Intro",
	"HPREF":         "House Pre-file",
	"HPSC":          "Printing & Supplies",
	"HTBL":          "House Table",
	"HXPSC":         "House Printing & Supplies Committee",
	"HXRC":          "HOUSE RULES & ORDER OF BUSINESS",
	"HZLM":          "In Limbo (House)",
	"m/rcnsr adptd": "Motion to reconsider previous action adopted.",
	"OCER":          "Certificate",
	"PASSED/H":      "Passed House",
	"PASSED/S":      "Passed Senate",
	"PCA":           "Constitutional Amendment",
	"CA":            "Constitutional Amendment",
	"PCH":           "Chaptered",
	"PKVT":          "Pocket Veto",
	"PSGN":          "Signed",
	"PVET":          "Vetoed",
	"QSUB":          "Substituted",
	"rcld frm/h":    "Bill recalled from the House for further consideration by the Senate",
	"rcld frm/s":    "Bill recalled from the Senate for further consideration by the House.",
	"s/cncrd":       "Senate has concurred in House amendments on a Senate bill",
	"s/fld recede":  "Senate refuses to recede from its amendments",
	"SCAL":          "Senate Calendar",
	"SCC":           "Committees' Committee",
	"SCNR":          "Senate Concurrence Calendar",
	"SCs":           "Senate Committee Substitute",
	"SCW":           "Committee of the Whole",
	"SGND":          "Signed by one or both houses (does not require Governor's signature)",
	"SINT":          "Senate Intro",
	"SPREF":         "Senate Pre-file",
	"STBL":          "Senate Table",
	"SZLM":          "In Limbo (Senate)",
	"T":             "On the Speaker's table by rule (temporary calendar)",
	"tbld":          "Tabled temporarily by motion.",
	"TBLD INDEF.":   "Tabled indefinitely.",
	"VETO":          "Vetoed by the Governor",
	"w/drn":         "Withdrawn from committee or daily calendar for subsequent action.",
	"w/o rec":       "WITHOUT RECOMMENDATION committee report adopted.",
}

// codesByLength holds the abbreviation keys, longest first, so that
// "DP/a" is tried before "DP" and "DNP nt adptd" before "DNP".
var codesByLength = func() []string {
	codes := make([]string, 0, len(abbreviations))
	for code := range abbreviations {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		if len(codes[i]) != len(codes[j]) {
			return len(codes[i]) > len(codes[j])
		}
		return codes[i] < codes[j]
	})
	return codes
}()

// Lookup returns the expansion of a single action code.
func Lookup(code string) (string, bool) {
	s, ok := abbreviations[code]
	return s, ok
}

// Expand replaces every whole-word action code in text with its
// expansion. A code matches only when it is not bordered by a letter or
// digit on either side, so the T in HINT or SJC-TRC is left alone.
func Expand(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	prev := rune(-1)
	for i := 0; i < len(text); {
		if !isWordRune(prev) {
			if code, ok := codeAt(text, i); ok {
				b.WriteString(abbreviations[code])
				i += len(code)
				prev, _ = utf8.DecodeLastRuneInString(code)
				continue
			}
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		b.WriteRune(r)
		prev = r
		i += size
	}
	return b.String()
}

// codeAt returns the longest code starting at text[i:] that ends on a
// word boundary.
func codeAt(text string, i int) (string, bool) {
	rest := text[i:]
	for _, code := range codesByLength {
		if !strings.HasPrefix(rest, code) {
			continue
		}
		next, _ := utf8.DecodeRuneInString(rest[len(code):])
		if len(rest) == len(code) || !isWordRune(next) {
			return code, true
		}
	}
	return "", false
}

func isWordRune(r rune) bool {
	if r < 0 {
		return false
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
