package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"chat-relay/internal/mocks"
)

func TestPublishEvent(t *testing.T) {
	t.Cleanup(func() { SetPublisher(nil) })

	assert.NoError(t, PublishEvent(context.Background(), "ws.connected", EventEnvelope{}, nil))

	p := &mocks.PublisherMock{}
	SetPublisher(p)
	p.On("PublishJSON", mock.Anything, "ws.connected", EventEnvelope{EventType: "ws"}, map[string]string{"x-request-id": "req-1"}).
		Return(nil).Once()
	err := PublishEvent(context.Background(), "ws.connected", EventEnvelope{EventType: "ws"}, BuildHeaders("req-1", ""))
	assert.NoError(t, err)

	p.On("PublishJSON", mock.Anything, "ws.closed", EventEnvelope{}, map[string]string(nil)).
		Return(errors.New("boom")).Once()
	assert.Error(t, PublishEvent(context.Background(), "ws.closed", EventEnvelope{}, nil))
	p.AssertExpectations(t)
}

func TestIPFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", IPFromRequest(req))

	req.Header.Set("X-Real-Ip", "5.6.7.8")
	assert.Equal(t, "5.6.7.8", IPFromRequest(req))

	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")
	assert.Equal(t, "1.2.3.4", IPFromRequest(req))
}

func TestNewEventEnvelope(t *testing.T) {
	env := NewEventEnvelope("ws_events", "ws_connect", map[string]string{"k": "v"})
	assert.Equal(t, "ws_events", env.EventType)
	assert.Equal(t, "ws_connect", env.EventName)
	assert.Equal(t, "chat-relay", env.Service)
	assert.NotEmpty(t, env.OccurredAt)
	assert.Equal(t, map[string]string{"k": "v"}, env.Payload)
}

func TestSplitFullMethod(t *testing.T) {
	svc, method := splitFullMethod("/grpc.health.v1.Health/Check")
	assert.Equal(t, "grpc.health.v1.Health", svc)
	assert.Equal(t, "Check", method)

	svc, method = splitFullMethod("bad")
	assert.Equal(t, "unknown", svc)
	assert.Equal(t, "unknown", method)
}
