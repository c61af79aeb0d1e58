package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/mocks"
)

func TestAuditEmitter_Emit(t *testing.T) {
	pub := &mocks.PublisherMock{}
	e := NewAuditEmitter(pub, "audit.events", "chat-relay", "test", nil)
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	user := "alice"

	pub.On("Publish", mock.Anything, "audit.events", mock.MatchedBy(func(env AuditEnvelope) bool {
		return env.EventType == "audit_log" &&
			env.Service == "chat-relay" &&
			env.RequestID == "req-1" &&
			*env.UserName == "alice" &&
			env.OccurredAt == "2024-05-01T12:00:00Z" &&
			env.Payload == AuditPayload{Level: "INFO", Text: "window muted"}
	})).Return(nil).Once()

	e.Emit(context.Background(), "INFO", "window muted", "req-1", &user)
	pub.AssertExpectations(t)
}

func TestAuditEmitter_PublishErrorIsSwallowed(t *testing.T) {
	pub := &mocks.PublisherMock{}
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("closed"))

	e := NewAuditEmitter(pub, "audit.events", "chat-relay", "test", nil)
	assert.NotPanics(t, func() { e.Emit(context.Background(), "WARN", "x", "", nil) })

	var nilEmitter *AuditEmitter
	assert.NotPanics(t, func() { nilEmitter.Emit(context.Background(), "INFO", "x", "", nil) })
}

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "", "chat-relay")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
