package decode

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jjenkins/billtracker/internal/bill"
)

// ErrInvalidDesignation is returned for a bill designation that does not
// carry a chamber, a bill type and a number. It marks a caller bug, not
// bad legislative data.
var ErrInvalidDesignation = errors.New("invalid bill designation")

// SignedLocation ends a bill's path in a Projection.
const SignedLocation = "SIGNED"

// Projection lists the locations a bill has been through and a best
// guess at the ones it still has to visit. It does not model
// concurrence, conference committees, or other corner cases.
type Projection struct {
	Past     []string `json:"past" yaml:"past"`
	Future   []string `json:"future" yaml:"future"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ProjectRaw decodes actioncode and projects the result.
func ProjectRaw(designation, actioncode string) (Projection, error) {
	return ProjectLocations(designation, DecodeFullHistory(actioncode).History)
}

// ProjectLocations walks a decoded history and works out past and
// future locations for the bill named by designation, e.g. HB17.
func ProjectLocations(designation string, history []HistoryEntry) (Projection, error) {
	d, err := bill.Parse(designation)
	if err != nil {
		return Projection{}, fmt.Errorf("%w: %q", ErrInvalidDesignation, designation)
	}

	var (
		proj        Projection
		assignments []string
		curloc      string
	)
	past := []string{}

	for _, e := range history {
		kind, committees := classify(e)
		switch kind {
		case KindAssigned:
			assignments = nil
			for _, c := range committees {
				if c != "" {
					assignments = append(assignments, c)
				}
			}

		case KindDoPass:
			if curloc == "" {
				continue
			}
			past = append(past, curloc)
			if i := slices.Index(assignments, curloc); i >= 0 {
				assignments = slices.Delete(assignments, i, i+1)
			} else {
				proj.Warnings = append(proj.Warnings,
					fmt.Sprintf("%s: do pass from %s, which is not among assignments %v", d, curloc, assignments))
			}
			curloc = ""

		case KindPassed:
			if len(committees) > 0 {
				past = append(past, committees[0][:1])
			}
			assignments = nil
			curloc = ""

		case KindSent:
			if curloc != "" {
				past = append(past, curloc)
			}
			if len(committees) > 0 {
				curloc = committees[0]
			}

		case KindSigned:
			proj.Past = append(past, SignedLocation)
			proj.Future = []string{}
			return proj, nil
		}
	}

	future := []string{}
	if curloc != "" {
		future = append(future, curloc)
	}
	for _, a := range assignments {
		if a != curloc {
			future = append(future, a)
		}
	}

	start := d.Chamber
	if len(past) > 0 {
		start = past[0][:1]
	}
	last := start
	switch {
	case len(future) > 0:
		last = future[len(future)-1][:1]
	case len(past) > 0:
		last = past[len(past)-1][:1]
	}
	other := bill.OtherChamber(start)

	if len(past) == 0 && len(future) == 0 {
		future = append(future, start+"???")
	}
	if !slices.Contains(past, start) {
		future = append(future, start)
	}

	if !d.SingleChamber() && !slices.Contains(past, other) {
		if last == start {
			future = append(future, other+"???")
		}
		future = append(future, other)
	}

	if d.NeedsGovernor() {
		future = append(future, SignedLocation)
	}

	proj.Past = past
	proj.Future = future
	return proj, nil
}

// classify prefers the entry's Kind and falls back to reading the
// description, so histories built outside this package still project.
func classify(e HistoryEntry) (Kind, []string) {
	if e.Kind != KindOther {
		return e.Kind, e.Committees
	}

	desc := strings.TrimSpace(e.Description)
	switch {
	case strings.HasPrefix(desc, "Assigned "):
		return KindAssigned, strings.Split(firstField(desc[len("Assigned "):]), "/")
	case strings.HasPrefix(desc, "Do pass"), strings.HasPrefix(desc, "Committee sub do pass"):
		return KindDoPass, nil
	case strings.HasPrefix(desc, "Passed House"):
		return KindPassed, []string{LocationHouse}
	case strings.HasPrefix(desc, "Passed Senate"):
		return KindPassed, []string{LocationSenate}
	case strings.HasPrefix(desc, "Sent to "):
		return KindSent, []string{firstField(desc[len("Sent to "):])}
	case strings.HasPrefix(desc, "Signed"):
		return KindSigned, nil
	}
	return KindOther, nil
}

func firstField(s string) string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return strings.TrimRight(fields[0], ".,")
	}
	return ""
}
