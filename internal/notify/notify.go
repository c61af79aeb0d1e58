// Package notify turns highlighted messages into push notifications.
package notify

import (
	"fmt"
	"time"

	"chat-relay/internal/logger"
	"chat-relay/internal/models"
	"chat-relay/internal/state"
)

// StaleAfter is how old a server supplied timestamp may be before the
// message no longer notifies. It keeps replayed history quiet.
const StaleAfter = 15 * time.Minute

// Pusher delivers a notification to the devices of a session.
type Pusher interface {
	Push(s *state.Session, n models.Notification, requireInteraction bool)
}

type nopPusher struct{}

func (nopPusher) Push(*state.Session, models.Notification, bool) {}

// Dispatcher decides whether a message notifies and builds the payload.
type Dispatcher struct {
	pusher Pusher
	log    logger.Logger
	now    func() time.Time
}

// NewDispatcher creates a dispatcher. A nil pusher discards notifications.
func NewDispatcher(p Pusher, log logger.Logger) *Dispatcher {
	if p == nil {
		p = nopPusher{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Dispatcher{pusher: p, log: log, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// ShouldNotify reports whether a message in a window with the given mute
// state notifies. A zero eventTime counts as fresh.
func (d *Dispatcher) ShouldNotify(muted, highlighted bool, eventTime time.Time) bool {
	if muted || !highlighted {
		return false
	}
	return eventTime.IsZero() || eventTime.After(d.now().Add(-StaleAfter))
}

// Compose builds the notification title and body. pending is the number of
// unseen highlights in the window, including this message.
func Compose(windowName string, windowType models.WindowType, msgType models.MessageType, nick, cleanText string, pending int) (title, body string) {
	title = windowName
	if pending > 0 {
		if windowType == models.WindowQuery {
			title += fmt.Sprintf(" (%d new message%s)", pending, plural(pending))
		} else {
			title += fmt.Sprintf(" (%d mention%s)", pending, plural(pending))
		}
	}

	body = cleanText
	switch {
	case msgType == models.TypeAction:
		body = nick + " " + body
	case windowType != models.WindowQuery:
		body = nick + ": " + body
	}

	if pending > 1 {
		others := pending - 1
		body += fmt.Sprintf("\n\n… and %d other message%s", others, plural(others))
	}
	return title, body
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}

// Dispatch pushes a notification for msg when ShouldNotify allows it. It
// reports whether a push was handed to the transport.
func (d *Dispatcher) Dispatch(s *state.Session, w *state.Window, msg models.Message, eventTime time.Time, nick, cleanText string) bool {
	if !d.ShouldNotify(w.Muted(), msg.Highlight, eventTime) {
		return false
	}

	ts := eventTime
	if ts.IsZero() {
		ts = d.now()
	}
	title, body := Compose(w.Name(), w.Type(), msg.Type, nick, cleanText, w.HighlightCount())

	d.pusher.Push(s, models.Notification{
		Type:      "notification",
		ChanID:    w.ID(),
		Timestamp: ts.UnixMilli(),
		Title:     title,
		Body:      body,
	}, true)
	d.log.Debug("notification dispatched",
		logger.String("user", s.Name()),
		logger.Int64("window_id", w.ID()),
		logger.Int64("msg_id", msg.ID),
	)
	return true
}
