package highlight

import (
	"regexp"
	"strings"
)

// wordBoundary lists the characters accepted around a custom highlight word.
const wordBoundary = `[ .,+!?|/:<>(){}'"@&~-]`

// NickPattern compiles the network pattern for an own nickname. It does not
// match inside longer alphanumeric words, but does match right after a color
// code. Returns nil for an empty nick.
func NickPattern(nick string) *regexp.Regexp {
	if nick == "" {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|[^a-z0-9]|\x03[0-9]{1,2})` + regexp.QuoteMeta(nick) + `(?:[^a-z0-9]|$)`)
}

// WordsPattern compiles a case-insensitive pattern matching any of words as a
// whole word. Blank entries are skipped; nil is returned when nothing is left.
func WordsPattern(words []string) *regexp.Regexp {
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		tokens = append(tokens, regexp.QuoteMeta(w))
	}
	if len(tokens) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|` + wordBoundary + `)(?:` + strings.Join(tokens, "|") + `)(?:$|` + wordBoundary + `)`)
}

// ParseList splits a comma separated highlight setting.
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, ",")
}
