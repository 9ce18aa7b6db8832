package decode

import (
	"iter"
	"strconv"
	"strings"
)

// Token is one action from an action code, with the legislative day
// from the [N] marker in front of it. Day is 0 when the action had no
// marker.
type Token struct {
	Text string
	Day  int
}

// Tokens iterates over an action code such as
//
//	HPREF [2] HCPAC/HJC-HCPAC [3] DNP-CS/DP-HJC [4] DP [5] PASSED/H (40-29)
//
// yielding one Token per [N] marker. An unterminated [ makes the rest of
// the string one final token with day 0.
func Tokens(actioncode string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		rest := strings.TrimLeft(actioncode, " \t\r\n")
		for rest != "" {
			day := 0
			if strings.HasPrefix(rest, "[") {
				rest = rest[1:]
				closing := strings.IndexByte(rest, ']')
				if closing < 0 {
					yield(Token{Text: rest, Day: 0})
					return
				}
				day = parseDay(rest[:closing])
				rest = strings.TrimLeft(rest[closing+1:], " \t\r\n")
			}

			next := strings.IndexByte(rest, '[')
			if next < 0 {
				yield(Token{Text: rest, Day: day})
				return
			}
			if !yield(Token{Text: strings.TrimRight(rest[:next], " \t\r\n"), Day: day}) {
				return
			}
			rest = rest[next:]
		}
	}
}

// Tokenize collects Tokens into a slice.
func Tokenize(actioncode string) []Token {
	var tokens []Token
	for tok := range Tokens(actioncode) {
		tokens = append(tokens, tok)
	}
	return tokens
}

func parseDay(s string) int {
	day, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return day
}
