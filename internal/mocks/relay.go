package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"chat-relay/internal/models"
	"chat-relay/internal/state"
)

type EmitterMock struct {
	mock.Mock
}

func (m *EmitterMock) WindowCreated(s *state.Session, n *state.Network, w *state.Window, index int) {
	m.Called(s, n, w, index)
}

func (m *EmitterMock) MessageAppended(s *state.Session, w *state.Window, msg models.Message, c state.Counters) {
	m.Called(s, w, msg, c)
}

func (m *EmitterMock) IsWindowOpen(s *state.Session, windowID int64) bool {
	args := m.Called(s, windowID)
	if fn, ok := args.Get(0).(func(*state.Session, int64) bool); ok {
		return fn(s, windowID)
	}
	return args.Bool(0)
}

type SessionSaverMock struct {
	mock.Mock
}

func (m *SessionSaverMock) SaveSession(s *state.Session) {
	m.Called(s)
}

type BacklogLoaderMock struct {
	mock.Mock
}

func (m *BacklogLoaderMock) LoadBacklog(s *state.Session, n *state.Network, w *state.Window) {
	m.Called(s, n, w)
}

type MessageLoggerMock struct {
	mock.Mock
}

func (m *MessageLoggerMock) LogMessage(s *state.Session, n *state.Network, w *state.Window, msg models.Message) {
	m.Called(s, n, w, msg)
}

type LinkPrefetcherMock struct {
	mock.Mock
}

func (m *LinkPrefetcherMock) Prefetch(s *state.Session, w *state.Window, msg models.Message, cleanText string) {
	m.Called(s, w, msg, cleanText)
}

type PusherMock struct {
	mock.Mock
}

func (m *PusherMock) Push(s *state.Session, n models.Notification, requireInteraction bool) {
	m.Called(s, n, requireInteraction)
}

type AuditorMock struct {
	mock.Mock
}

func (m *AuditorMock) Emit(ctx context.Context, level, text, requestID string, userName *string) {
	m.Called(ctx, level, text, requestID, userName)
}
