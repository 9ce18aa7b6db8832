package bill

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Designation
	}{
		{"HB17", Designation{Chamber: "H", Type: "B", Number: 17}},
		{"sjm 4", Designation{Chamber: "S", Type: "JM", Number: 4}},
		{" HCR2 ", Designation{Chamber: "H", Type: "CR", Number: 2}},
		{"SB0099", Designation{Chamber: "S", Type: "B", Number: 99}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "HB", "XB12", "17", "HB17a"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrBadDesignation, in)
	}
}

func TestDesignationString(t *testing.T) {
	d, err := Parse("sjm 004")
	require.NoError(t, err)
	assert.Equal(t, "SJM4", d.String())
}

func TestDesignationKinds(t *testing.T) {
	tests := []struct {
		billno        string
		singleChamber bool
		governor      bool
		other         string
	}{
		{"HB1", false, true, "S"},
		{"SM3", true, false, "H"},
		{"HJM3", false, false, "S"},
		{"SJR1", false, false, "H"},
		{"HCR2", true, true, "S"},
		{"HR5", true, false, "S"},
	}

	for _, tt := range tests {
		t.Run(tt.billno, func(t *testing.T) {
			d, err := Parse(tt.billno)
			require.NoError(t, err)
			assert.Equal(t, tt.singleChamber, d.SingleChamber())
			assert.Equal(t, tt.governor, d.NeedsGovernor())
			assert.Equal(t, tt.other, OtherChamber(d.Chamber))
		})
	}

	assert.Equal(t, "H", OtherChamber("S"))
	assert.Equal(t, "S", OtherChamber("H"))
}

func TestCurrentLegYear(t *testing.T) {
	assert.Equal(t, 2024, CurrentLegYear(time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2024, CurrentLegYear(time.Date(2024, time.October, 31, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, 2025, CurrentLegYear(time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)))
}

func TestNormalizeYearCode(t *testing.T) {
	now := time.Date(2024, time.December, 5, 0, 0, 0, 0, time.UTC)

	tests := map[string]string{
		"":       "25",
		"2024":   "24",
		"24":     "24",
		"2021s2": "21s2",
		"21S2":   "21s2",
		"2020":   "20",
	}
	for in, want := range tests {
		got, err := NormalizeYearCode(in, now)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := NormalizeYearCode("last year", now)
	assert.ErrorIs(t, err, ErrBadYear)
}

func TestSessionNumber(t *testing.T) {
	n, err := SessionNumber("19")
	require.NoError(t, err)
	assert.Equal(t, 57, n)

	n, err = SessionNumber("25")
	require.NoError(t, err)
	assert.Equal(t, 63, n)

	assert.True(t, IsRegularSession("24"))
	assert.False(t, IsRegularSession("24s2"))
	_, err = SessionNumber("24s2")
	assert.ErrorIs(t, err, ErrBadYear)
}

func TestYearCode(t *testing.T) {
	assert.Equal(t, "24", YearCode(2024))
	assert.Equal(t, "05", YearCode(2005))
}

func TestCommitteeName(t *testing.T) {
	tests := map[string]string{
		"HAFC":  "House Appropriations & Finance",
		"HCEDC": "House Commerce & Economic Development Committee",
		"HHHC":  "House Health & Human Services",
		"HLVMC": "House Labor, Veterans' and Military Affairs Committee",
		"SFC":   "Senate Finance",
		"sjc":   "Senate Judiciary",
	}
	for code, want := range tests {
		got, ok := CommitteeName(code)
		require.True(t, ok, code)
		assert.Equal(t, want, got, code)
	}

	_, ok := CommitteeName("XYZ")
	assert.False(t, ok)
}

func TestLocationName(t *testing.T) {
	tests := map[string]string{
		"H":         "House Floor",
		"Senate":    "Senate Floor",
		"SIGNED":    "Signed by Governor",
		"S???":      "Senate committee (not yet assigned)",
		"HJC":       "House Judiciary",
		"Chaptered": "Chaptered",
		"HZZZ":      "HZZZ",
		"":          "Unknown",
	}
	for loc, want := range tests {
		assert.Equal(t, want, LocationName(loc), loc)
	}
}

func TestIsSpecialLocation(t *testing.T) {
	for _, loc := range []string{"H", "Senate", "SIGNED", "H???", "Chaptered", ""} {
		assert.True(t, IsSpecialLocation(loc), loc)
	}
	for _, loc := range []string{"HJC", "SFC"} {
		assert.False(t, IsSpecialLocation(loc), loc)
	}
}
