package telemetry

import (
	"context"
	"time"

	"chat-relay/internal/logger"
	"chat-relay/internal/rabbitmq"
)

type AuditEmitter struct {
	publisher   rabbitmq.Publisher
	routingKey  string
	service     string
	environment string
	log         logger.Logger
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	UserName      *string      `json:"user_name,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func NewAuditEmitter(publisher rabbitmq.Publisher, routingKey, service, environment string, log logger.Logger) *AuditEmitter {
	if log == nil {
		log = logger.Nop()
	}
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		log:         log,
		now:         time.Now,
	}
}

// Emit publishes one audit record. Publish failures are logged only.
func (e *AuditEmitter) Emit(ctx context.Context, level, text, requestID string, userName *string) {
	if e == nil || e.publisher == nil {
		return
	}

	e.log.Debug("audit emit",
		logger.String("level", level),
		logger.String("request_id", requestID),
		logger.String("text", text),
	)
	envelope := AuditEnvelope{
		SchemaVersion: 1,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     requestID,
		UserName:      userName,
		Payload: AuditPayload{
			Level: level,
			Text:  text,
		},
	}

	if err := e.publisher.Publish(ctx, e.routingKey, envelope); err != nil {
		e.log.Warn("audit publish failed", logger.Error(err))
	}
}
