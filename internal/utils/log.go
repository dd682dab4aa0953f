package utils

import "strings"

const ellipsis = "..."

// TruncateForLog keeps s on one line and cuts it to limit runes, marking the cut
// with an ellipsis.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimRight(string(runes[:limit]), " ") + ellipsis
}
