package relay

import (
	"chat-relay/internal/models"
	"chat-relay/internal/state"
)

// Emitter fans pipeline events out to the front ends attached to a session.
type Emitter interface {
	// WindowCreated announces a new window at index of the network.
	WindowCreated(s *state.Session, n *state.Network, w *state.Window, index int)
	// MessageAppended announces a message with the window counters after the append.
	MessageAppended(s *state.Session, w *state.Window, msg models.Message, c state.Counters)
	// IsWindowOpen reports whether any attached front end shows the window.
	IsWindowOpen(s *state.Session, windowID int64) bool
}

// SessionSaver persists the session configuration, including its windows.
type SessionSaver interface {
	SaveSession(s *state.Session)
}

// BacklogLoader fills a new window with stored history.
type BacklogLoader interface {
	LoadBacklog(s *state.Session, n *state.Network, w *state.Window)
}

// MessageLogger writes appended messages to long term storage.
type MessageLogger interface {
	LogMessage(s *state.Session, n *state.Network, w *state.Window, msg models.Message)
}

// LinkPrefetcher schedules link previews for a message.
type LinkPrefetcher interface {
	Prefetch(s *state.Session, w *state.Window, msg models.Message, cleanText string)
}

// The collaborators below must not block: implementations hand slow work to
// their own goroutines.

type nopEmitter struct{}

func (nopEmitter) WindowCreated(*state.Session, *state.Network, *state.Window, int)             {}
func (nopEmitter) MessageAppended(*state.Session, *state.Window, models.Message, state.Counters) {}
func (nopEmitter) IsWindowOpen(*state.Session, int64) bool                                      { return false }

type nopSaver struct{}

func (nopSaver) SaveSession(*state.Session) {}

type nopBacklog struct{}

func (nopBacklog) LoadBacklog(*state.Session, *state.Network, *state.Window) {}

type nopMessageLogger struct{}

func (nopMessageLogger) LogMessage(*state.Session, *state.Network, *state.Window, models.Message) {}

type nopPrefetcher struct{}

func (nopPrefetcher) Prefetch(*state.Session, *state.Window, models.Message, string) {}
