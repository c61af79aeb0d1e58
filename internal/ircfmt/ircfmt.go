// Package ircfmt holds text helpers for IRC payloads: formatting control code
// removal, nickname token scanning and hostmask wildcard matching.
package ircfmt

import (
	"regexp"
	"strings"
)

// formattingRe matches bold, italic, underline, reverse, reset, monospace,
// strikethrough and both color code forms.
var formattingRe = regexp.MustCompile(`(?i)\x1D|\x1F|\x16|\x0F|\x11|\x1E|\x02|\x03(?:[0-9]{1,2}(?:,[0-9]{1,2})?)?|\x04(?:[0-9a-f]{6}(?:,[0-9a-f]{6})?)?`)

// nickTokenRe matches nickname shaped words, optionally preceded by a color code.
var nickTokenRe = regexp.MustCompile("(?:\\x03[0-9]{1,2}(?:,[0-9]{1,2})?)?([\\w\\[\\]\\\\`^{|}-]+)")

// Clean strips IRC formatting codes and surrounding whitespace.
func Clean(text string) string {
	return strings.TrimSpace(formattingRe.ReplaceAllString(text, ""))
}

// NickTokens returns every nickname shaped token of text in order of appearance.
func NickTokens(text string) []string {
	matches := nickTokenRe.FindAllStringSubmatch(text, -1)
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[1])
	}
	return tokens
}
