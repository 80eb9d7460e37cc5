package room

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	scriptBlock = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTag   = regexp.MustCompile(`(?i)</?script\b[^>]*>`)
)

// sanitizeText removes script markup and control characters other than
// newlines and tabs, clips to max runes and trims surrounding space.
func sanitizeText(s string, max int) string {
	s = scriptBlock.ReplaceAllString(s, "")
	s = scriptTag.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r != '\n' && r != '\t' && unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	if runes := []rune(s); max > 0 && len(runes) > max {
		s = string(runes[:max])
	}
	return strings.TrimSpace(s)
}
