// Package highlight decides whether a relayed message is personally relevant
// to the session owner.
//
// Rules are evaluated in order and the first one that fires wins. The
// exception rule runs last and can only take a highlight away. Self-authored
// messages never highlight.
package highlight

import (
	"regexp"

	"chat-relay/internal/models"
)

const (
	RuleQuery     = "query"
	RuleNetwork   = "network"
	RuleCustom    = "custom"
	RuleException = "exception"
)

// Input is everything the engine looks at for one message.
type Input struct {
	WindowType models.WindowType
	Self       bool
	RawText    string
	CleanText  string

	Network   *regexp.Regexp // derived from the own nick, tested on RawText
	Custom    *regexp.Regexp // session words, tested on CleanText
	Exception *regexp.Regexp // session exceptions, tested on CleanText
}

// Decision is the outcome of Decide.
type Decision struct {
	Highlight bool
	Rule      string // rule that fired, empty when none did
	Vetoed    bool   // a rule fired but the exception removed it
}

// Rule is one named predicate of the chain.
type Rule struct {
	Name  string
	Match func(Input) bool
}

// Engine evaluates an ordered rule chain followed by a veto rule.
type Engine struct {
	rules []Rule
	veto  Rule
}

// NewEngine returns the default chain: query, network, custom, then the
// exception veto.
func NewEngine() *Engine {
	return NewEngineWithRules([]Rule{
		{Name: RuleQuery, Match: func(in Input) bool {
			return in.WindowType == models.WindowQuery
		}},
		{Name: RuleNetwork, Match: func(in Input) bool {
			return in.Network != nil && in.Network.MatchString(in.RawText)
		}},
		{Name: RuleCustom, Match: func(in Input) bool {
			return in.Custom != nil && in.Custom.MatchString(in.CleanText)
		}},
	}, Rule{Name: RuleException, Match: func(in Input) bool {
		return in.Exception != nil && in.Exception.MatchString(in.CleanText)
	}})
}

// NewEngineWithRules builds an engine from an explicit chain.
func NewEngineWithRules(rules []Rule, veto Rule) *Engine {
	return &Engine{rules: rules, veto: veto}
}

// Decide runs the chain for in.
func (e *Engine) Decide(in Input) Decision {
	if in.Self {
		return Decision{}
	}

	var d Decision
	for _, r := range e.rules {
		if r.Match(in) {
			d = Decision{Highlight: true, Rule: r.Name}
			break
		}
	}
	if d.Highlight && e.veto.Match != nil && e.veto.Match(in) {
		d.Highlight = false
		d.Vetoed = true
	}
	return d
}
