// Package push hands notifications to the web push delivery worker over AMQP.
package push

import (
	"context"
	"time"

	"chat-relay/internal/async"
	"chat-relay/internal/logger"
	"chat-relay/internal/models"
	"chat-relay/internal/rabbitmq"
	"chat-relay/internal/state"
)

// RoutingKey is the AMQP routing key of notification jobs.
const RoutingKey = "push.notification"

// Job is the message consumed by the delivery worker.
type Job struct {
	UserName           string              `json:"user_name"`
	RequireInteraction bool                `json:"require_interaction"`
	Payload            models.Notification `json:"payload"`
}

// Publisher implements notify.Pusher on top of a rabbitmq.Publisher.
type Publisher struct {
	publisher rabbitmq.Publisher
	run       async.Runner
	timeout   time.Duration
	log       logger.Logger
}

func NewPublisher(publisher rabbitmq.Publisher, run async.Runner, log logger.Logger) *Publisher {
	if run == nil {
		run = async.Go
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{publisher: publisher, run: run, timeout: 5 * time.Second, log: log}
}

// Push publishes n for the devices of s. Delivery is not awaited.
func (p *Publisher) Push(s *state.Session, n models.Notification, requireInteraction bool) {
	job := Job{UserName: s.Name(), RequireInteraction: requireInteraction, Payload: n}
	p.run.Do(p.log, "push_notification", p.timeout, func(ctx context.Context) error {
		return p.publisher.Publish(ctx, RoutingKey, job)
	})
}
