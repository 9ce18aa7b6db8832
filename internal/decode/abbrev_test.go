package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HPREF", "House Pre-file"},
		{"HINT", "House Intro"},
		{"T", "On the Speaker's table by rule (temporary calendar)"},
		{"DP/a", "Do Pass, as amended, committee report adopted."},
		{"DP", "Do Pass committee report adopted."},
		{"DNP nt adptd", "Do Not Pass committee report NOT adopted"},
		{"PASSED/H (40-29)", "Passed House (40-29)"},
		{"SJC-TRC", "SJC-TRC"},
		{"HCPAC/HJC-HCPAC", "HCPAC/HJC-HCPAC"},
		{"tbld in HJC", "Tabled temporarily by motion. in HJC"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.in))
		})
	}
}

func TestExpandIsWordBoundarySafe(t *testing.T) {
	speaker, ok := Lookup("T")
	assert.True(t, ok)

	for _, code := range []string{"HINT", "SINT", "HTBL", "HCAT", "STBTC-STBTC", "HTRC"} {
		assert.NotContains(t, Expand(code), speaker, code)
	}
	assert.Contains(t, Expand("HB 9 T"), speaker)
}

func TestLookup(t *testing.T) {
	got, ok := Lookup("SGND")
	assert.True(t, ok)
	assert.Contains(t, got, "Signed")

	_, ok = Lookup("HJC")
	assert.False(t, ok)
}
