package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/async"
	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/state"
)

func newStore(networks *mocks.NetworkRepositoryMock, messages *mocks.MessageRepositoryMock, sink BacklogSink) *Store {
	return NewStore(Options{
		Networks: networks,
		Messages: messages,
		Sink:     sink,
		Runner:   async.Inline,
	})
}

func newSession() (*state.Session, *state.Network) {
	s := state.NewSession(state.SessionOptions{Name: "alice"})
	n := s.AddNetwork(state.NetworkOptions{UUID: "net-1", Name: "Libera", Host: "irc.libera.chat", Nick: "me"})
	return s, n
}

func TestStore_SaveSession(t *testing.T) {
	networks := &mocks.NetworkRepositoryMock{}
	s, n := newSession()
	n.FindOrCreateWindow("bob", models.WindowQuery)

	networks.On("SaveNetwork", mock.Anything,
		mock.MatchedBy(func(rec models.NetworkRecord) bool { return rec.UUID == "net-1" && rec.UserName == "alice" }),
		[]models.WindowRecord{{NetworkUUID: "net-1", Name: "bob", Type: models.WindowQuery, Position: 1}},
	).Return(nil).Once()

	newStore(networks, &mocks.MessageRepositoryMock{}, nil).SaveSession(s)
	networks.AssertExpectations(t)
}

func TestStore_SaveSessionErrorIsSwallowed(t *testing.T) {
	networks := &mocks.NetworkRepositoryMock{}
	s, _ := newSession()
	networks.On("SaveNetwork", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))

	assert.NotPanics(t, func() {
		newStore(networks, &mocks.MessageRepositoryMock{}, nil).SaveSession(s)
	})
}

func TestStore_LoadBacklog(t *testing.T) {
	messages := &mocks.MessageRepositoryMock{}
	sink := &mocks.BacklogSinkMock{}
	s, n := newSession()
	w, _, _ := n.FindOrCreateWindow("bob", models.WindowQuery)
	w.PushMessage(models.Message{ID: s.NextMessageID(), Text: "live"}, true, false)

	at := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	messages.On("ListWindowMessages", mock.Anything, "alice", "net-1", "bob", DefaultBacklogLimit).Return([]models.MessageRecord{
		{ID: 900, Type: "message", Time: at, Text: "old one", SenderNick: "bob", Users: "me bob"},
		{ID: 901, Type: "action", Time: at, Text: "waves", SenderNick: "bob"},
	}, nil)
	sink.On("BacklogLoaded", s, w, mock.Anything).Once()

	newStore(&mocks.NetworkRepositoryMock{}, messages, sink).LoadBacklog(s, n, w)

	msgs := w.Messages(0)
	require.Len(t, msgs, 3)
	assert.Equal(t, "old one", msgs[0].Text)
	assert.Equal(t, []string{"me", "bob"}, msgs[0].Users)
	assert.Equal(t, int64(2), msgs[0].ID)
	assert.Equal(t, int64(3), msgs[1].ID)
	assert.Equal(t, models.TypeAction, msgs[1].Type)
	assert.Equal(t, "live", msgs[2].Text)
	sink.AssertExpectations(t)
}

func TestStore_LoadBacklogEmpty(t *testing.T) {
	messages := &mocks.MessageRepositoryMock{}
	sink := &mocks.BacklogSinkMock{}
	s, n := newSession()
	w, _, _ := n.FindOrCreateWindow("bob", models.WindowQuery)
	messages.On("ListWindowMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	newStore(&mocks.NetworkRepositoryMock{}, messages, sink).LoadBacklog(s, n, w)

	assert.Empty(t, w.Messages(0))
	sink.AssertNotCalled(t, "BacklogLoaded", mock.Anything, mock.Anything, mock.Anything)
}

func TestStore_LogMessage(t *testing.T) {
	messages := &mocks.MessageRepositoryMock{}
	s, n := newSession()
	w := n.ServerWindow()
	at := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	msg := models.Message{ID: 4, Type: models.TypeNotice, Time: at, Text: "hi", From: models.Sender{Nick: "bob", Mode: "+"}, Users: []string{"a", "b"}, StatusmsgGroup: "@"}

	messages.On("AppendMessage", mock.Anything, models.MessageRecord{
		ID:             4,
		UserName:       "alice",
		NetworkUUID:    "net-1",
		Window:         "Libera",
		Type:           "notice",
		Time:           at,
		Text:           "hi",
		SenderNick:     "bob",
		SenderMode:     "+",
		Users:          "a b",
		StatusmsgGroup: "@",
	}).Return(int64(1), nil).Once()

	newStore(&mocks.NetworkRepositoryMock{}, messages, nil).LogMessage(s, n, w, msg)
	messages.AssertExpectations(t)
}

func TestStore_Restore(t *testing.T) {
	networks := &mocks.NetworkRepositoryMock{}
	s, n := newSession()
	networks.On("ListWindows", mock.Anything, "net-1").Return([]models.WindowRecord{
		{NetworkUUID: "net-1", Name: "#go", Type: models.WindowChannel, Muted: true, Position: 1},
		{NetworkUUID: "net-1", Name: "bob", Type: models.WindowQuery, Position: 2},
	}, nil)

	require.NoError(t, newStore(networks, &mocks.MessageRepositoryMock{}, nil).Restore(context.Background(), s))

	windows := n.Windows()
	require.Len(t, windows, 3)
	assert.Equal(t, "#go", windows[1].Name())
	assert.True(t, windows[1].Muted())
	assert.Equal(t, models.WindowQuery, windows[2].Type())
}

func TestRecordRoundTrip(t *testing.T) {
	msg := FromRecord(models.MessageRecord{ID: 1, Type: "message", Text: "x"})
	assert.Equal(t, []string{}, msg.Users)
}
