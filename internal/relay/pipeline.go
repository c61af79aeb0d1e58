// Package relay turns classified IRC events into window messages: it picks
// the destination window, decides highlights, updates unread state, fans the
// message out, and triggers notifications and mention tracking.
package relay

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chat-relay/internal/highlight"
	"chat-relay/internal/ircfmt"
	"chat-relay/internal/logger"
	"chat-relay/internal/models"
	"chat-relay/internal/notify"
	"chat-relay/internal/observability"
	"chat-relay/internal/state"
)

// Drop reasons reported in Result.Dropped.
const (
	DropIgnored            = "ignored"
	DropUnsupportedCommand = "unsupported_command"
	DropNoWindow           = "no_window"
)

var tracer = otel.Tracer("chat-relay/internal/relay")

// Result describes what Handle did with one event.
type Result struct {
	Message    models.Message
	Window     *state.Window
	Created    bool   // a window was opened for this event
	FromServer bool   // the event was treated as server-originated
	Notified   bool   // a push notification was dispatched
	Membership bool   // the event only changed member lists; Message is empty
	Dropped    string // non-empty when the event did not reach a window
}

// Options wires the pipeline. Nil collaborators are replaced by no-ops.
type Options struct {
	Engine     *highlight.Engine
	Dispatcher *notify.Dispatcher
	Emitter    Emitter
	Saver      SessionSaver
	Backlog    BacklogLoader
	MessageLog MessageLogger
	Prefetcher LinkPrefetcher
	Logger     logger.Logger
	Now        func() time.Time
}

// Pipeline relays inbound message events.
type Pipeline struct {
	engine     *highlight.Engine
	dispatcher *notify.Dispatcher
	emitter    Emitter
	saver      SessionSaver
	backlog    BacklogLoader
	msgLog     MessageLogger
	prefetcher LinkPrefetcher
	log        logger.Logger
	now        func() time.Time
}

func New(opts Options) *Pipeline {
	p := &Pipeline{
		engine:     opts.Engine,
		dispatcher: opts.Dispatcher,
		emitter:    opts.Emitter,
		saver:      opts.Saver,
		backlog:    opts.Backlog,
		msgLog:     opts.MessageLog,
		prefetcher: opts.Prefetcher,
		log:        opts.Logger,
		now:        opts.Now,
	}
	if p.log == nil {
		p.log = logger.Nop()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.engine == nil {
		p.engine = highlight.NewEngine()
	}
	if p.dispatcher == nil {
		p.dispatcher = notify.NewDispatcher(nil, p.log).WithClock(p.now)
	}
	if p.emitter == nil {
		p.emitter = nopEmitter{}
	}
	if p.saver == nil {
		p.saver = nopSaver{}
	}
	if p.backlog == nil {
		p.backlog = nopBacklog{}
	}
	if p.msgLog == nil {
		p.msgLog = nopMessageLogger{}
	}
	if p.prefetcher == nil {
		p.prefetcher = nopPrefetcher{}
	}
	return p
}

// Classify maps a protocol command to a message type. WALLOPS is always
// treated as a server message.
func Classify(command string) (t models.MessageType, forceServer bool, ok bool) {
	switch strings.ToUpper(command) {
	case "NOTICE":
		return models.TypeNotice, false, true
	case "ACTION":
		return models.TypeAction, false, true
	case "PRIVMSG":
		return models.TypeMessage, false, true
	case "WALLOPS":
		return models.TypeWallops, true, true
	default:
		return "", false, false
	}
}

// Handle relays one event of network n. Events of the same network are
// handled one at a time, in call order.
func (p *Pipeline) Handle(ctx context.Context, s *state.Session, n *state.Network, ev models.InboundEvent) Result {
	var res Result
	n.Serialize(func() {
		res = p.handle(ctx, s, n, ev)
	})
	return res
}

func (p *Pipeline) handle(ctx context.Context, s *state.Session, n *state.Network, ev models.InboundEvent) Result {
	_, span := tracer.Start(ctx, "relay.handle", trace.WithAttributes(
		attribute.String("relay.user", s.Name()),
		attribute.String("relay.network", n.UUID()),
		attribute.String("relay.command", ev.Command),
	))
	defer span.End()

	start := time.Now()
	defer func() { observability.ObserveRelayDuration(time.Since(start)) }()

	if res, ok := p.membership(span, s, n, ev); ok {
		return res
	}

	msgType, forceServer, ok := Classify(ev.Command)
	if !ok {
		return p.drop(span, DropUnsupportedCommand, ev)
	}

	fromServer := ev.FromServer || forceServer
	self := ev.Nick != "" && ev.Nick == n.Nick()

	nick := ev.Nick
	if nick == "" {
		fromServer = true
		nick = ev.Hostname
		if nick == "" {
			nick = n.Host()
		}
	}

	var (
		w            *state.Window
		created      bool
		showInActive bool
	)
	// Server and untargeted events land in the server window and bypass the
	// ignore list.
	if (fromServer || ev.Target == "") && !n.HasChannel(ev.Target) {
		w = n.ServerWindow()
	} else {
		sender := ircfmt.Hostmask{Nick: nick, Ident: ev.Ident, Hostname: ev.Hostname}
		if !self && n.IsIgnored(sender) {
			return p.drop(span, DropIgnored, ev)
		}

		target := n.ResolveTarget(ev.Target, nick)
		var found bool
		w, found = n.FindWindow(target)
		switch {
		case found:
		case msgType == models.TypeNotice:
			w = n.ServerWindow()
			showInActive = true
		default:
			var index int
			w, index, created = n.FindOrCreateWindow(target, models.WindowQuery)
			if created {
				p.windowCreated(s, n, w, index)
			}
		}
	}

	eventTime := ev.Time
	msgTime := eventTime
	if msgTime.IsZero() {
		msgTime = p.now()
	}

	from := w.GetUser(nick)
	if w.Type() == models.WindowChannel {
		w.TouchUser(nick, msgTime)
	}

	cleaned := ircfmt.Clean(ev.Message)
	decision := p.engine.Decide(highlight.Input{
		WindowType: w.Type(),
		Self:       self,
		RawText:    ev.Message,
		CleanText:  cleaned,
		Network:    n.HighlightPattern(),
		Custom:     s.HighlightPattern(),
		Exception:  s.ExceptionPattern(),
	})
	recordDecision(decision)

	msg := models.Message{
		ID:             s.NextMessageID(),
		Type:           msgType,
		Time:           msgTime,
		Text:           ev.Message,
		From:           from.Sender(),
		Self:           self,
		Highlight:      decision.Highlight,
		Users:          mentionedUsers(w, ev.Message),
		StatusmsgGroup: ev.Group,
		ShowInActive:   showInActive,
	}

	if msgType == models.TypeMessage || msgType == models.TypeAction {
		p.prefetcher.Prefetch(s, w, msg, cleaned)
	}

	open := p.emitter.IsWindowOpen(s, w.ID())
	counters := w.PushMessage(msg, !msg.Self, open)
	p.emitter.MessageAppended(s, w, msg, counters)
	p.msgLog.LogMessage(s, n, w, msg)
	observability.IncRelayMessage(string(msg.Type), string(w.Type()))

	notified := p.dispatcher.Dispatch(s, w, msg, eventTime, nick, cleaned)
	if notified {
		observability.IncNotification()
	}

	if msg.Highlight && w.Type() == models.WindowChannel && ledgerType(msg.Type) {
		s.Mentions().Push(models.Mention{
			ChanID: w.ID(),
			MsgID:  msg.ID,
			Type:   msg.Type,
			Time:   msg.Time.UnixMilli(),
			Text:   msg.Text,
			From:   msg.From,
		})
	}

	span.SetAttributes(
		attribute.Int64("relay.window_id", w.ID()),
		attribute.Int64("relay.msg_id", msg.ID),
		attribute.Bool("relay.highlight", msg.Highlight),
	)
	return Result{Message: msg, Window: w, Created: created, FromServer: fromServer, Notified: notified}
}

func (p *Pipeline) windowCreated(s *state.Session, n *state.Network, w *state.Window, index int) {
	observability.IncWindowCreated()
	p.log.Info("window opened",
		logger.String("user", s.Name()),
		logger.String("type", string(w.Type())),
		logger.String("network", n.UUID()),
		logger.String("window", w.Name()),
		logger.Int64("window_id", w.ID()),
	)
	p.emitter.WindowCreated(s, n, w, index)
	p.saver.SaveSession(s)
	p.backlog.LoadBacklog(s, n, w)
}

func (p *Pipeline) drop(span trace.Span, reason string, ev models.InboundEvent) Result {
	observability.IncRelayDropped(reason)
	span.SetAttributes(attribute.String("relay.dropped", reason))
	p.log.Debug("inbound event dropped",
		logger.String("reason", reason),
		logger.String("command", ev.Command),
		logger.String("nick", ev.Nick),
	)
	return Result{Dropped: reason}
}

// ledgerType reports whether highlighted messages of t are kept in the
// mention ledger. Wallops are operator broadcasts, not mentions.
func ledgerType(t models.MessageType) bool {
	switch t {
	case models.TypeMessage, models.TypeAction, models.TypeNotice:
		return true
	}
	return false
}

func recordDecision(d highlight.Decision) {
	switch {
	case d.Highlight:
		observability.IncHighlight(d.Rule, "hit")
	case d.Vetoed:
		observability.IncHighlight(d.Rule, "vetoed")
	}
}

// mentionedUsers returns the tokens of text that name a member of w, in
// order, duplicates kept.
func mentionedUsers(w *state.Window, text string) []string {
	users := []string{}
	for _, token := range ircfmt.NickTokens(text) {
		if _, ok := w.FindUser(token); ok {
			users = append(users, token)
		}
	}
	return users
}
