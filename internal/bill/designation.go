// Package bill handles New Mexico bill designations, legislative year
// codes and the committee directory used to label bill locations.
package bill

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrBadDesignation is returned for strings that are not of the form
// chamber, bill type, number (HB17, SJM 4).
var ErrBadDesignation = errors.New("unrecognized bill designation")

var designationPat = regexp.MustCompile(`^([HS])([A-Z]+) *([0-9]+)$`)

// Designation is a parsed bill number such as HJM4.
type Designation struct {
	Chamber string // H or S
	Type    string // B, M, JM, JR, CR, R ...
	Number  int
}

// Parse splits a bill number into chamber, type and number.
// Case and surrounding whitespace are ignored.
func Parse(billno string) (Designation, error) {
	m := designationPat.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(billno)))
	if m == nil {
		return Designation{}, fmt.Errorf("%w: %q", ErrBadDesignation, billno)
	}

	n, err := strconv.Atoi(m[3])
	if err != nil {
		return Designation{}, fmt.Errorf("%w: %q", ErrBadDesignation, billno)
	}

	return Designation{Chamber: m[1], Type: m[2], Number: n}, nil
}

// String returns the canonical form, e.g. "HB17".
func (d Designation) String() string {
	return fmt.Sprintf("%s%s%d", d.Chamber, d.Type, d.Number)
}

// SingleChamber reports whether the bill never leaves its chamber of
// origin: memorials, simple resolutions and concurrent resolutions.
func (d Designation) SingleChamber() bool {
	switch d.Type[0] {
	case 'M', 'R':
		return true
	}
	return strings.HasPrefix(d.Type, "CR")
}

// NeedsGovernor reports whether the bill goes to the governor after passing.
// Memorials and simple or joint resolutions do not.
func (d Designation) NeedsGovernor() bool {
	switch d.Type[0] {
	case 'M', 'R', 'J':
		return false
	}
	return true
}

// OtherChamber maps a chamber letter to the opposite chamber's letter.
func OtherChamber(chamber string) string {
	if chamber == "H" {
		return "S"
	}
	return "H"
}
