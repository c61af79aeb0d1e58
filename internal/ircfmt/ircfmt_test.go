package ircfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello world", "hello world"},
		{"bold and reset", "\x02bold\x0f text", "bold text"},
		{"color with background", "\x0304,12red\x03 plain", "red plain"},
		{"hex color", "\x04FF0000,00ff00hex\x04", "hex"},
		{"italic underline strike mono reverse", "\x1Da\x1Fb\x1Ec\x11d\x16e", "abcde"},
		{"surrounding space", "  \x02 padded \x02  ", "padded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestNickTokens(t *testing.T) {
	assert.Equal(t, []string{"hi", "bob", "and", "carol"}, NickTokens("hi bob, and carol!"))
	assert.Equal(t, []string{"[away]", "x`y", "a|b"}, NickTokens("[away] x`y a|b"))
	assert.Equal(t, []string{"bob"}, NickTokens("\x0304bob"))
	assert.Equal(t, []string{"bob", "bob"}, NickTokens("bob bob"))
	assert.Empty(t, NickTokens("!!! ..."))
}

func TestParseHostmask(t *testing.T) {
	assert.Equal(t, Hostmask{Nick: "nick", Ident: "ident", Hostname: "host"}, ParseHostmask("nick!ident@host"))
	assert.Equal(t, Hostmask{Nick: "nick", Ident: "*", Hostname: "*"}, ParseHostmask("nick"))
	assert.Equal(t, Hostmask{Nick: "nick", Ident: "*", Hostname: "host"}, ParseHostmask("nick@host"))
	assert.Equal(t, Hostmask{Nick: "*", Ident: "*", Hostname: "*"}, ParseHostmask(""))
	assert.Equal(t, "a!b@c", ParseHostmask("a!b@c").String())
}

func TestMaskMatches(t *testing.T) {
	sender := Hostmask{Nick: "Bob", Ident: "~bob", Hostname: "user/bob"}

	assert.True(t, CompileMask("bob").Matches(sender))
	assert.True(t, CompileMask("b*!*@user/*").Matches(sender))
	assert.True(t, CompileMask("*!~BOB@*").Matches(sender))
	assert.False(t, CompileMask("bo").Matches(sender))
	assert.False(t, CompileMask("*!*@other").Matches(sender))
	assert.True(t, CompileMask("a.b+c").Matches(Hostmask{Nick: "a.b+c"}))
	assert.False(t, CompileMask("a.b").Matches(Hostmask{Nick: "axb"}))
	assert.True(t, CompileMask("").Matches(Hostmask{}))
}

func TestCompileMaskCompilesOnce(t *testing.T) {
	m := CompileMask("b*!~bob")

	assert.Equal(t, Hostmask{Nick: "b*", Ident: "~bob", Hostname: "*"}, m.Hostmask)
	assert.Equal(t, "b*!~bob@*", m.String())
	require.NotNil(t, m.nick)
	require.NotNil(t, m.ident)
	assert.Nil(t, m.host)
	assert.Equal(t, "(?i)^b.*$", m.nick.String())
}
