package relay

import (
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"chat-relay/internal/logger"
	"chat-relay/internal/models"
	"chat-relay/internal/state"
)

// memberPrefixes are the channel mode prefixes a NAMES entry may carry,
// highest first.
const memberPrefixes = "~&@%+"

// membership applies JOIN, PART, QUIT and NAMES to the member lists of the
// channel windows of n. It reports false for any other command. Membership
// events never append a message and bypass the ignore list.
func (p *Pipeline) membership(span trace.Span, s *state.Session, n *state.Network, ev models.InboundEvent) (Result, bool) {
	command := strings.ToUpper(ev.Command)
	switch command {
	case "JOIN", "PART", "QUIT", "NAMES":
	default:
		return Result{}, false
	}
	span.SetAttributes(attribute.Bool("relay.membership", true))

	if command == "QUIT" {
		if ev.Nick == "" {
			return p.drop(span, DropNoWindow, ev), true
		}
		for _, w := range n.Windows() {
			if w.Type() == models.WindowChannel {
				w.RemoveUser(ev.Nick)
			}
		}
		p.logMembership(s, n, command, ev.Nick, nil)
		return Result{Membership: true}, true
	}

	if !n.HasChannel(ev.Target) && command != "JOIN" {
		return p.drop(span, DropNoWindow, ev), true
	}

	var (
		w       *state.Window
		created bool
	)
	switch command {
	case "JOIN":
		if ev.Target == "" || ev.Nick == "" {
			return p.drop(span, DropNoWindow, ev), true
		}
		if existing, found := n.FindWindow(ev.Target); found && existing.Type() != models.WindowChannel {
			return p.drop(span, DropNoWindow, ev), true
		}
		var index int
		w, index, created = n.FindOrCreateWindow(ev.Target, models.WindowChannel)
		if created {
			p.windowCreated(s, n, w, index)
		}
		if _, known := w.FindUser(ev.Nick); !known {
			w.AddUser(ev.Nick, "")
		}
	case "PART":
		w, _ = n.FindWindow(ev.Target)
		w.RemoveUser(ev.Nick)
	case "NAMES":
		w, _ = n.FindWindow(ev.Target)
		for _, entry := range strings.Fields(ev.Message) {
			nick, mode := SplitMemberPrefix(entry)
			if nick != "" {
				w.AddUser(nick, mode)
			}
		}
	}

	p.logMembership(s, n, command, ev.Nick, w)
	span.SetAttributes(attribute.Int64("relay.window_id", w.ID()))
	return Result{Window: w, Created: created, Membership: true}, true
}

// SplitMemberPrefix splits a NAMES entry such as "@+bob" into the nick and
// its highest mode prefix.
func SplitMemberPrefix(entry string) (nick, mode string) {
	nick = strings.TrimLeft(entry, memberPrefixes)
	if prefix := entry[:len(entry)-len(nick)]; prefix != "" {
		mode = prefix[:1]
	}
	return nick, mode
}

func (p *Pipeline) logMembership(s *state.Session, n *state.Network, command, nick string, w *state.Window) {
	fields := []zap.Field{
		logger.String("user", s.Name()),
		logger.String("network", n.UUID()),
		logger.String("command", command),
		logger.String("nick", nick),
	}
	if w != nil {
		fields = append(fields, logger.String("window", w.Name()), logger.Int("members", len(w.Users())))
	}
	p.log.Debug("membership updated", fields...)
}
