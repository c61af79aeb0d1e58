package push

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chat-relay/internal/async"
	"chat-relay/internal/mocks"
	"chat-relay/internal/models"
	"chat-relay/internal/state"
)

func TestPublisher_Push(t *testing.T) {
	pub := &mocks.PublisherMock{}
	s := state.NewSession(state.SessionOptions{Name: "alice"})
	n := models.Notification{Type: "notification", ChanID: 3, Timestamp: 1700000000000, Title: "#go (1 mention)", Body: "bob: hi"}

	pub.On("Publish", mock.Anything, RoutingKey, Job{UserName: "alice", RequireInteraction: true, Payload: n}).Return(nil).Once()

	NewPublisher(pub, async.Inline, nil).Push(s, n, true)
	pub.AssertExpectations(t)
}

func TestPublisher_PushErrorIsNotFatal(t *testing.T) {
	pub := &mocks.PublisherMock{}
	s := state.NewSession(state.SessionOptions{Name: "alice"})
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	assert.NotPanics(t, func() {
		NewPublisher(pub, async.Inline, nil).Push(s, models.Notification{}, true)
	})
}
