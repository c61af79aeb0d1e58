package rabbitmq

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"chat-relay/internal/logger"
	"chat-relay/internal/observability"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher("", "relay.events", logger.Nop())

	assert.Equal(t, "noop", PublisherMode(p))
	assert.Equal(t, "empty amqp url", PublisherNoopReason(p))
	assert.NoError(t, p.Publish(context.Background(), "push.notification", map[string]string{"a": "b"}))
	assert.NoError(t, p.Close())
}

func TestNoopPublisherServesObservability(t *testing.T) {
	p := NewNoopPublisher("disabled", nil)

	obs, ok := p.(observability.Publisher)
	assert.True(t, ok)
	assert.NoError(t, obs.PublishJSON(context.Background(), "ws.connected", struct{}{}, nil))
	assert.Equal(t, "", PublisherNoopReason(nil))
	assert.Equal(t, "unknown", PublisherMode(nil))
}
