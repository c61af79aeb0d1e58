package highlight

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"chat-relay/internal/models"
)

func TestNickPattern(t *testing.T) {
	re := NickPattern("me")

	assert.True(t, re.MatchString("me"))
	assert.True(t, re.MatchString("hi me"))
	assert.True(t, re.MatchString("ME: ping"))
	assert.True(t, re.MatchString("\x0304me"))
	assert.False(t, re.MatchString("meme"))
	assert.False(t, re.MatchString("some text"))
	assert.Nil(t, NickPattern(""))
}

func TestNickPatternEscapesNick(t *testing.T) {
	re := NickPattern("a[b]")
	assert.True(t, re.MatchString("hey a[b]"))
	assert.False(t, re.MatchString("hey ab"))
}

func TestWordsPattern(t *testing.T) {
	re := WordsPattern(ParseList("golang, rust ,,"))

	assert.True(t, re.MatchString("I like Golang."))
	assert.True(t, re.MatchString("rust"))
	assert.True(t, re.MatchString("(rust)"))
	assert.False(t, re.MatchString("rusty"))
	assert.False(t, re.MatchString("golangci"))
	assert.Nil(t, WordsPattern(ParseList(" , ")))
	assert.Nil(t, WordsPattern(nil))
}

func TestEngine_Decide(t *testing.T) {
	e := NewEngine()
	nick := NickPattern("me")
	custom := WordsPattern([]string{"deploy"})
	except := WordsPattern([]string{"cron"})

	tests := []struct {
		name   string
		in     Input
		want   bool
		rule   string
		vetoed bool
	}{
		{
			name: "query always highlights",
			in:   Input{WindowType: models.WindowQuery, RawText: "hello", CleanText: "hello"},
			want: true, rule: RuleQuery,
		},
		{
			name: "self never highlights",
			in:   Input{WindowType: models.WindowQuery, Self: true, RawText: "me", CleanText: "me", Network: nick},
		},
		{
			name: "nick mention in channel",
			in:   Input{WindowType: models.WindowChannel, RawText: "hi me", CleanText: "hi me", Network: nick},
			want: true, rule: RuleNetwork,
		},
		{
			name: "nick as part of word",
			in:   Input{WindowType: models.WindowChannel, RawText: "meme", CleanText: "meme", Network: nick},
		},
		{
			name: "custom word on clean text",
			in:   Input{WindowType: models.WindowChannel, RawText: "\x02deploy\x02 done", CleanText: "deploy done", Custom: custom},
			want: true, rule: RuleCustom,
		},
		{
			name: "exception vetoes nick mention",
			in:   Input{WindowType: models.WindowChannel, RawText: "me: cron failed", CleanText: "me: cron failed", Network: nick, Exception: except},
			rule: RuleNetwork, vetoed: true,
		},
		{
			name: "exception vetoes query",
			in:   Input{WindowType: models.WindowQuery, RawText: "cron", CleanText: "cron", Exception: except},
			rule: RuleQuery, vetoed: true,
		},
		{
			name: "exception alone does nothing",
			in:   Input{WindowType: models.WindowChannel, RawText: "cron", CleanText: "cron", Exception: except},
		},
		{
			name: "no patterns",
			in:   Input{WindowType: models.WindowLobby, RawText: "me", CleanText: "me"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := e.Decide(tt.in)
			assert.Equal(t, tt.want, d.Highlight)
			assert.Equal(t, tt.rule, d.Rule)
			assert.Equal(t, tt.vetoed, d.Vetoed)
		})
	}
}

func TestEngine_NetworkPatternUsesRawText(t *testing.T) {
	e := NewEngine()
	// the color code right before the nick only counts on the raw text
	d := e.Decide(Input{
		WindowType: models.WindowChannel,
		RawText:    "x\x0304me",
		CleanText:  "xme",
		Network:    NickPattern("me"),
	})
	assert.True(t, d.Highlight)
}

func TestEngineWithRules(t *testing.T) {
	always := Rule{Name: "always", Match: func(Input) bool { return true }}
	e := NewEngineWithRules([]Rule{always}, Rule{})

	d := e.Decide(Input{})
	assert.True(t, d.Highlight)
	assert.Equal(t, "always", d.Rule)

	veto := regexp.MustCompile("x")
	e = NewEngineWithRules([]Rule{always}, Rule{Name: "x", Match: func(in Input) bool { return veto.MatchString(in.CleanText) }})
	assert.False(t, e.Decide(Input{CleanText: "x"}).Highlight)
}
