package decode

import (
	"fmt"
	"strings"
)

// FullHistoryText renders a history for display, one
// "Legislative day N:" header each time the day changes, followed by
// the descriptions indented beneath it.
func FullHistoryText(history []HistoryEntry) string {
	var b strings.Builder
	for i, e := range history {
		if i == 0 || e.Day != history[i-1].Day {
			if i > 0 {
				b.WriteByte('\n')
			}
			fmt.Fprintf(&b, "Legislative day %d:", e.Day)
		}
		b.WriteString("\n    ")
		b.WriteString(e.Description)
	}
	return b.String()
}
