package bill

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// committeeSource is the legislature's committee list as published,
// in whatever capitalization the site uses.
var committeeSource = map[string]string{
	"HAFC":  "Appropriations & Finance",
	"HAGC":  "House Agriculture & Water Resources Committee",
	"HAWC":  "Agriculture, Water & Wildlife",
	"HBEC":  "Business & Employment",
	"HBIC":  "House Business & Industry Committee",
	"HCEDC": "COMMERCE & ECONOMIC DEVELOPMENT COMMITTEE",
	"HCPAC": "House Consumer & Public Affairs Committee",
	"HE&EC": "Enrolling & Engrossing",
	"HEC":   "Education",
	"HEEC":  "House Enrolling & Engrossing Committee",
	"HEENC": "Energy, Environment & Natural Resources",
	"HENRC": "House Energy & Natural Resources Committee",
	"HGEIC": "Government, Elections & Indian Affairs",
	"HGUAC": "House Government & Urban Affairs",
	"HHC":   "Health",
	"HHGAC": "House Health & Government Affairs Committee",
	"HHGIC": "House Health, Government & Indian Affairs Committee",
	"HHHC":  "HOUSE HEALTH & HUMAN SERVICES",
	"HJC":   "Judiciary",
	"HLC":   "House Labor & Human Resources Committee",
	"HLEDC": "HOUSE LABOR & ECONOMIC DEVELOPMENT",
	"HLELC": "HOUSE LOCAL GOVERNMENT, ELECTIONS, LAND GRANTS & CULTURAL AFFAIRS",
	"HLLC":  "LOCAL GOVERNMENT, LAND GRANTS & CULTURAL AFFAIRS",
	"HLVMC": "LABOR, VETERANS' AND MILITARY AFFAIRS COMMITTEE",
	"HRC":   "Rules & Order of Business",
	"HRPAC": "Regulatory & Public Affairs",
	"HSCAC": "Safety & Civil Affairs",
	"HSEIC": "STATE GOVERNMENT, ELECTIONS & INDIAN AFFAIRS COMMITTEE",
	"HSIVC": "HOUSE STATE GOVERNMENT, INDIAN & VETERANS' AFFAIRS",
	"HTC":   "House Transportation Committee",
	"HTPWC": "Transportation & Public Works",
	"HTRC":  "House Taxation & Revenue Committee",
	"HVEC":  "House Voters & Elections Committee",
	"HWMC":  "Ways & Means",
	"SCONC": "Conservation",
	"SCORC": "Corporations & Transportation",
	"SEC":   "Education",
	"SFC":   "Finance",
	"SGC":   "Senate Select Gaming Committee",
	"SHPAC": "Health & Public Affairs",
	"SIAC":  "Indian & Cultural Affairs",
	"SJC":   "Judiciary",
	"SPAC":  "Public Affairs",
	"SRC":   "Rules",
	"STBTC": "Tax, Business & Transportation",
	"SWMC":  "Senate Ways & Means Committee",
}

// committees holds the display names, built once at init.
var committees = buildCommittees(committeeSource)

// buildCommittees title-cases each name and prefixes the chamber when the
// published name leaves it out.
func buildCommittees(src map[string]string) map[string]string {
	caser := cases.Title(language.English)
	out := make(map[string]string, len(src))
	for code, name := range src {
		name = caser.String(strings.ToLower(name))
		name = strings.ReplaceAll(name, " And ", " and ")
		chamber := ChamberName(code[:1])
		if !strings.HasPrefix(name, chamber+" ") {
			name = chamber + " " + name
		}
		out[code] = name
	}
	return out
}

// CommitteeName returns the display name for a committee code.
func CommitteeName(code string) (string, bool) {
	name, ok := committees[strings.ToUpper(code)]
	return name, ok
}

// ChamberName maps a chamber letter to "House" or "Senate".
func ChamberName(letter string) string {
	switch strings.ToUpper(letter) {
	case "H":
		return "House"
	case "S":
		return "Senate"
	}
	return letter
}

// IsSpecialLocation reports whether loc is a floor, a placeholder or a
// terminal state rather than a committee.
func IsSpecialLocation(loc string) bool {
	switch loc {
	case "", "H", "S", "House", "Senate", "Signed", "SIGNED", "Chaptered":
		return true
	}
	return strings.HasSuffix(loc, "???")
}

// LocationName returns a human readable name for a bill location: a
// committee code, a chamber floor, a "H???" placeholder for a committee
// not yet assigned, or the signed state.
func LocationName(loc string) string {
	switch loc {
	case "":
		return "Unknown"
	case "H", "House":
		return "House Floor"
	case "S", "Senate":
		return "Senate Floor"
	case "Signed", "SIGNED":
		return "Signed by Governor"
	case "Chaptered":
		return loc
	}

	if chamber, ok := strings.CutSuffix(loc, "???"); ok {
		return ChamberName(chamber) + " committee (not yet assigned)"
	}

	if name, ok := CommitteeName(loc); ok {
		return name
	}
	return loc
}
