package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		code string
		want []Token
	}{
		{
			name: "leading action has day zero",
			code: "HPREF [2] HCPAC/HJC-HCPAC [3] DP",
			want: []Token{
				{Text: "HPREF", Day: 0},
				{Text: "HCPAC/HJC-HCPAC", Day: 2},
				{Text: "DP", Day: 3},
			},
		},
		{
			name: "long history",
			code: "  HPREF [2] HCPAC/HJC-HCPAC [3] DNP-CS/DP-HJC [4] DP [5] PASSED/H (40-29)",
			want: []Token{
				{Text: "HPREF", Day: 0},
				{Text: "HCPAC/HJC-HCPAC", Day: 2},
				{Text: "DNP-CS/DP-HJC", Day: 3},
				{Text: "DP", Day: 4},
				{Text: "PASSED/H (40-29)", Day: 5},
			},
		},
		{
			name: "days may repeat and go backward",
			code: "[1] HAFC-HAFC- DP [2] PASSED/H (47-19) [1] SFC-SFC- DP",
			want: []Token{
				{Text: "HAFC-HAFC- DP", Day: 1},
				{Text: "PASSED/H (47-19)", Day: 2},
				{Text: "SFC-SFC- DP", Day: 1},
			},
		},
		{
			name: "unterminated bracket ends tokenizing",
			code: "HPREF [2] unterminated [",
			want: []Token{
				{Text: "HPREF", Day: 0},
				{Text: "unterminated", Day: 2},
				{Text: "", Day: 0},
			},
		},
		{
			name: "unterminated bracket keeps the remainder",
			code: "[7 DP-HJC",
			want: []Token{{Text: "7 DP-HJC", Day: 0}},
		},
		{
			name: "non-numeric day",
			code: "[x] DP",
			want: []Token{{Text: "DP", Day: 0}},
		},
		{
			name: "empty marker text",
			code: "[2] [3] DP",
			want: []Token{{Text: "", Day: 2}, {Text: "DP", Day: 3}},
		},
		{
			name: "empty input",
			code: "   ",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.code))
		})
	}
}

func TestTokensRestartable(t *testing.T) {
	seq := Tokens("HPREF [2] HCPAC/HJC-HCPAC [3] DP")

	var first, second []Token
	for tok := range seq {
		first = append(first, tok)
	}
	for tok := range seq {
		second = append(second, tok)
	}
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

func TestTokensStopEarly(t *testing.T) {
	var got []Token
	for tok := range Tokens("A [1] B [2] C [3] D") {
		got = append(got, tok)
		if len(got) == 2 {
			break
		}
	}
	require.Len(t, got, 2)
	assert.Equal(t, Token{Text: "B", Day: 1}, got[1])
}

func TestTokenDays(t *testing.T) {
	var days []int
	for tok := range Tokens("HPREF [2] HCPAC/HJC-HCPAC [3] DP") {
		days = append(days, tok.Day)
	}
	assert.Equal(t, []int{0, 2, 3}, days)
}
