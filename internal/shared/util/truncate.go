package util

import "strings"

// TruncationMarker is appended whenever content is cut to a length limit
// before being embedded in a prompt.
const TruncationMarker = "\n\n[... content truncated ...]"

// Truncate cuts s to at most max characters (runes) and appends the
// truncation marker. Strings within the limit are returned unchanged.
func Truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + TruncationMarker
}

// CollapseNewlines normalizes line endings and collapses runs of three or
// more newlines down to two, keeping at most one blank line between blocks.
func CollapseNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
