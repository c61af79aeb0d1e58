package observability

import "time"

const serviceName = "chat-relay"

// EventEnvelope wraps lifecycle events published on the bus.
type EventEnvelope struct {
	EventType  string      `json:"event_type"`
	EventName  string      `json:"event_name"`
	Service    string      `json:"service,omitempty"`
	OccurredAt string      `json:"occurred_at,omitempty"`
	Payload    interface{} `json:"payload"`
}

// NewEventEnvelope stamps an envelope with the service name and the current time.
func NewEventEnvelope(eventType, eventName string, payload interface{}) EventEnvelope {
	return EventEnvelope{
		EventType:  eventType,
		EventName:  eventName,
		Service:    serviceName,
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}
}

// BuildHeaders returns the transport headers for an event, skipping empty values.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
