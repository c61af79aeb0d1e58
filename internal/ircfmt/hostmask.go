package ircfmt

import (
	"regexp"
	"strings"
)

// Hostmask is a nick!ident@host triple. Empty parts of a parsed pattern are
// filled with "*".
type Hostmask struct {
	Nick     string
	Ident    string
	Hostname string
}

// ParseHostmask parses "nick!ident@host", "nick!ident", "nick@host" or "nick".
func ParseHostmask(mask string) Hostmask {
	mask = strings.TrimSpace(mask)
	h := Hostmask{Nick: "*", Ident: "*", Hostname: "*"}

	nickPart := mask
	if at := strings.LastIndex(mask, "@"); at >= 0 {
		if host := mask[at+1:]; host != "" {
			h.Hostname = host
		}
		nickPart = mask[:at]
	}
	if bang := strings.Index(nickPart, "!"); bang >= 0 {
		if ident := nickPart[bang+1:]; ident != "" {
			h.Ident = ident
		}
		nickPart = nickPart[:bang]
	}
	if nickPart != "" {
		h.Nick = nickPart
	}
	return h
}

// String renders the hostmask in nick!ident@host form.
func (h Hostmask) String() string {
	return h.Nick + "!" + h.Ident + "@" + h.Hostname
}

// Mask is a hostmask pattern with every part compiled once, for matching
// against many senders.
type Mask struct {
	Hostmask
	nick, ident, host *regexp.Regexp
}

// CompileMask parses mask like ParseHostmask and compiles its parts. A part
// that is exactly "*" matches anything without a regexp.
func CompileMask(mask string) Mask {
	h := ParseHostmask(mask)
	return Mask{
		Hostmask: h,
		nick:     compileWildcard(h.Nick),
		ident:    compileWildcard(h.Ident),
		host:     compileWildcard(h.Hostname),
	}
}

// Matches reports whether sender matches the pattern. Every part must match
// in full, case-insensitively, with "*" matching any run.
func (m Mask) Matches(sender Hostmask) bool {
	return matchPart(m.nick, sender.Nick) &&
		matchPart(m.ident, sender.Ident) &&
		matchPart(m.host, sender.Hostname)
}

func compileWildcard(pattern string) *regexp.Regexp {
	if pattern == "*" {
		return nil
	}
	expr := strings.ReplaceAll(regexp.QuoteMeta(pattern), `\*`, ".*")
	return regexp.MustCompile("(?i)^" + expr + "$")
}

func matchPart(re *regexp.Regexp, value string) bool {
	return re == nil || re.MatchString(value)
}
