// Package utils provides shared utilities for text, math, and logging.
package utils

import "unicode"

// Truncate returns s truncated to maxLen runes, with "..." appended if
// truncated. Cutting on a rune boundary keeps Arabic and other multi-byte
// text valid. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// ContainsArabic reports whether s contains at least one Arabic-script rune.
// Used to pick the Arabic variant of the generation system instruction.
func ContainsArabic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}
