package ws

import "time"

// ConnInfo describes one attached front end for lifecycle events.
type ConnInfo struct {
	ConnID      string
	UserName    string
	UserAgent   string
	IP          string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
