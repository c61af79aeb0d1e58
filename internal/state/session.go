// Package state holds the in-memory model of connected users: sessions,
// their networks, and the windows of each network.
package state

import (
	"errors"
	"regexp"
	"sync"
	"sync/atomic"

	"chat-relay/internal/highlight"
	"chat-relay/internal/mentions"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNetworkNotFound = errors.New("network not found")
	ErrWindowNotFound  = errors.New("window not found")
)

// SessionOptions configures a new session.
type SessionOptions struct {
	Name                string
	Highlights          []string
	HighlightExceptions []string
	MaxHistory          int
	MentionCapacity     int
}

// Session is the per-user state shared by every attached front end.
type Session struct {
	name       string
	maxHistory int
	mentions   *mentions.Ledger

	windowSeq  atomic.Int64
	messageSeq atomic.Int64

	mu          sync.RWMutex
	networks    []*Network
	highlightRe *regexp.Regexp
	exceptionRe *regexp.Regexp
}

func NewSession(opts SessionOptions) *Session {
	maxHistory := opts.MaxHistory
	if maxHistory == 0 {
		maxHistory = DefaultMaxHistory
	}
	s := &Session{
		name:       opts.Name,
		maxHistory: maxHistory,
		mentions:   mentions.New(opts.MentionCapacity),
	}
	s.SetHighlights(opts.Highlights)
	s.SetHighlightExceptions(opts.HighlightExceptions)
	return s
}

func (s *Session) Name() string                { return s.name }
func (s *Session) Mentions() *mentions.Ledger { return s.mentions }

// NextWindowID returns a new session-unique window id, starting at 1.
func (s *Session) NextWindowID() int64 { return s.windowSeq.Add(1) }

// NextMessageID returns a new session-unique, increasing message id.
func (s *Session) NextMessageID() int64 { return s.messageSeq.Add(1) }

// SetHighlights replaces the custom highlight words.
func (s *Session) SetHighlights(words []string) {
	re := highlight.WordsPattern(words)
	s.mu.Lock()
	s.highlightRe = re
	s.mu.Unlock()
}

// SetHighlightExceptions replaces the highlight exception words.
func (s *Session) SetHighlightExceptions(words []string) {
	re := highlight.WordsPattern(words)
	s.mu.Lock()
	s.exceptionRe = re
	s.mu.Unlock()
}

func (s *Session) HighlightPattern() *regexp.Regexp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.highlightRe
}

func (s *Session) ExceptionPattern() *regexp.Regexp {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exceptionRe
}

// AddNetwork creates a network with its server window.
func (s *Session) AddNetwork(opts NetworkOptions) *Network {
	n := newNetwork(opts, s, s.maxHistory)
	s.mu.Lock()
	s.networks = append(s.networks, n)
	s.mu.Unlock()
	return n
}

// Network looks a network up by uuid.
func (s *Session) Network(uuid string) (*Network, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, n := range s.networks {
		if n.uuid == uuid {
			return n, nil
		}
	}
	return nil, ErrNetworkNotFound
}

func (s *Session) Networks() []*Network {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*Network(nil), s.networks...)
}

// FindWindow looks a window up by id across all networks.
func (s *Session) FindWindow(id int64) (*Network, *Window, error) {
	for _, n := range s.Networks() {
		if w, ok := n.FindWindowByID(id); ok {
			return n, w, nil
		}
	}
	return nil, nil, ErrWindowNotFound
}

// Registry indexes sessions by user name.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.name] = s
	r.mu.Unlock()
}

func (r *Registry) Get(name string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[name]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
