// Package linkpreview schedules link preview fetches for relayed messages.
// Fetching itself happens in a separate worker fed over AMQP; this package
// extracts the links, deduplicates recent fetches in Redis and publishes jobs.
package linkpreview

import (
	"regexp"
	"strings"
)

// DefaultMaxLinks is the number of links previewed per message.
const DefaultMaxLinks = 5

var linkRe = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"'\x60]+`)

// ExtractLinks returns the distinct http(s) links of text in order, at most
// max of them. Trailing punctuation and an unbalanced closing parenthesis are
// not part of a link.
func ExtractLinks(text string, max int) []string {
	if max <= 0 {
		max = DefaultMaxLinks
	}
	seen := map[string]bool{}
	var links []string
	for _, m := range linkRe.FindAllString(text, -1) {
		link := trimLink(m)
		if seen[link] || strings.HasSuffix(link, "://") {
			continue
		}
		seen[link] = true
		links = append(links, link)
		if len(links) == max {
			break
		}
	}
	return links
}

func trimLink(link string) string {
	for len(link) > 0 {
		last := link[len(link)-1]
		switch {
		case strings.IndexByte(".,;:!?'\"", last) >= 0:
			link = link[:len(link)-1]
		case last == ')' && strings.Count(link, "(") < strings.Count(link, ")"):
			link = link[:len(link)-1]
		case last == ']' && strings.Count(link, "[") < strings.Count(link, "]"):
			link = link[:len(link)-1]
		default:
			return link
		}
	}
	return link
}
