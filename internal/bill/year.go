package bill

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrBadYear is returned for year strings that cannot be turned into a
// legislative year code.
var ErrBadYear = errors.New("unrecognized legislative year")

var yearCodePat = regexp.MustCompile(`^(?:20)?([0-9]{2})(s[0-9])?$`)

// CurrentLegYear returns the legislative year in effect at now. From
// November on, the session that starts in January is the current one.
func CurrentLegYear(now time.Time) int {
	if now.Month() >= time.November {
		return now.Year() + 1
	}
	return now.Year()
}

// YearCode returns the two-digit code nmlegis.gov uses for a year.
func YearCode(year int) string {
	return fmt.Sprintf("%02d", year%100)
}

// NormalizeYearCode turns "2024", "24", "2024s2" or "24s2" into the
// site's year code. An empty string means the current legislative year.
func NormalizeYearCode(year string, now time.Time) (string, error) {
	year = strings.ToLower(strings.TrimSpace(year))
	if year == "" {
		return YearCode(CurrentLegYear(now)), nil
	}

	m := yearCodePat.FindStringSubmatch(year)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrBadYear, year)
	}
	return m[1] + m[2], nil
}

// IsRegularSession reports whether a year code names a regular session
// rather than a special one like "24s2".
func IsRegularSession(yearcode string) bool {
	m := yearCodePat.FindStringSubmatch(yearcode)
	return m != nil && m[2] == ""
}

// SessionNumber returns the number nmlegis.gov gives a regular session
// in its bill listings, counting from the 1963 session.
func SessionNumber(yearcode string) (int, error) {
	if !IsRegularSession(yearcode) {
		return 0, fmt.Errorf("%w: %q is not a regular session", ErrBadYear, yearcode)
	}
	yy, _ := strconv.Atoi(yearCodePat.FindStringSubmatch(yearcode)[1])
	return 2000 + yy - 1962, nil
}
