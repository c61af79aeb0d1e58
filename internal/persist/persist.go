// Package persist adapts the repositories to the side effects the relay
// pipeline triggers: saving session state, loading query backlog and
// logging appended messages. All work runs off the caller's goroutine;
// backlog loads and message writes of one window run in call order.
package persist

import (
	"context"
	"strings"
	"time"

	"chat-relay/internal/async"
	"chat-relay/internal/logger"
	"chat-relay/internal/models"
	"chat-relay/internal/repositories"
	"chat-relay/internal/state"
)

// DefaultBacklogLimit is the number of messages loaded into a new window.
const DefaultBacklogLimit = 100

// BacklogSink receives history loaded for a window.
type BacklogSink interface {
	BacklogLoaded(s *state.Session, w *state.Window, msgs []models.Message)
}

type Options struct {
	Networks     repositories.NetworkRepository
	Messages     repositories.MessageRepository
	Sink         BacklogSink
	BacklogLimit int
	Timeout      time.Duration
	Runner       async.Runner
	Logger       logger.Logger
}

// Store implements the session saver, backlog loader and message logger.
type Store struct {
	networks repositories.NetworkRepository
	messages repositories.MessageRepository
	sink     BacklogSink
	limit    int
	timeout  time.Duration
	run      async.Runner
	windows  *async.Queue
	log      logger.Logger
}

func NewStore(opts Options) *Store {
	s := &Store{
		networks: opts.Networks,
		messages: opts.Messages,
		sink:     opts.Sink,
		limit:    opts.BacklogLimit,
		timeout:  opts.Timeout,
		run:      opts.Runner,
		log:      opts.Logger,
	}
	if s.limit <= 0 {
		s.limit = DefaultBacklogLimit
	}
	if s.run == nil {
		s.run = async.Go
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.windows = async.NewQueue(s.run)
	return s
}

// SaveSession writes every network of s with its windows.
func (st *Store) SaveSession(s *state.Session) {
	type snapshot struct {
		rec     models.NetworkRecord
		windows []models.WindowRecord
	}
	var snaps []snapshot
	for _, n := range s.Networks() {
		rec, windows := n.Record(s.Name())
		snaps = append(snaps, snapshot{rec: rec, windows: windows})
	}

	st.run.Do(st.log, "save_session", st.timeout, func(ctx context.Context) error {
		for _, snap := range snaps {
			if err := st.networks.SaveNetwork(ctx, snap.rec, snap.windows); err != nil {
				return err
			}
		}
		st.log.Debug("session saved", logger.String("user", s.Name()), logger.Int("networks", len(snaps)))
		return nil
	})
}

// LoadBacklog loads stored history of w, prepends it and hands it to the sink.
// The read runs before any message logged for w after this call.
func (st *Store) LoadBacklog(s *state.Session, n *state.Network, w *state.Window) {
	st.windows.Do(windowKey(s, n, w), st.log, "load_backlog", st.timeout, func(ctx context.Context) error {
		recs, err := st.messages.ListWindowMessages(ctx, s.Name(), n.UUID(), w.Name(), st.limit)
		if err != nil {
			return err
		}
		msgs := make([]models.Message, 0, len(recs))
		for _, rec := range recs {
			msg := FromRecord(rec)
			msg.ID = s.NextMessageID()
			msgs = append(msgs, msg)
		}
		if len(msgs) == 0 {
			return nil
		}
		w.PrependMessages(msgs)
		if st.sink != nil {
			st.sink.BacklogLoaded(s, w, msgs)
		}
		return nil
	})
}

// LogMessage appends msg to the message log.
func (st *Store) LogMessage(s *state.Session, n *state.Network, w *state.Window, msg models.Message) {
	rec := ToRecord(s.Name(), n.UUID(), w.Name(), msg)
	st.windows.Do(windowKey(s, n, w), st.log, "log_message", st.timeout, func(ctx context.Context) error {
		_, err := st.messages.AppendMessage(ctx, rec)
		return err
	})
}

func windowKey(s *state.Session, n *state.Network, w *state.Window) string {
	return s.Name() + "\x00" + n.UUID() + "\x00" + strings.ToLower(w.Name())
}

// Restore recreates the saved windows of every network of s.
func (st *Store) Restore(ctx context.Context, s *state.Session) error {
	for _, n := range s.Networks() {
		windows, err := st.networks.ListWindows(ctx, n.UUID())
		if err != nil {
			return err
		}
		for _, rec := range windows {
			w, _, _ := n.FindOrCreateWindow(rec.Name, rec.Type)
			w.SetMuted(rec.Muted)
		}
	}
	return nil
}

// ToRecord converts a message to its logged form.
func ToRecord(user, networkUUID, window string, msg models.Message) models.MessageRecord {
	return models.MessageRecord{
		ID:             msg.ID,
		UserName:       user,
		NetworkUUID:    networkUUID,
		Window:         window,
		Type:           string(msg.Type),
		Time:           msg.Time,
		Text:           msg.Text,
		SenderNick:     msg.From.Nick,
		SenderMode:     msg.From.Mode,
		Self:           msg.Self,
		Highlight:      msg.Highlight,
		Users:          strings.Join(msg.Users, " "),
		StatusmsgGroup: msg.StatusmsgGroup,
	}
}

// FromRecord converts a logged row back to a message. The row id is kept;
// callers relaying it to a session assign a session id.
func FromRecord(rec models.MessageRecord) models.Message {
	users := []string{}
	if rec.Users != "" {
		users = strings.Fields(rec.Users)
	}
	return models.Message{
		ID:             rec.ID,
		Type:           models.MessageType(rec.Type),
		Time:           rec.Time,
		Text:           rec.Text,
		From:           models.Sender{Nick: rec.SenderNick, Mode: rec.SenderMode},
		Self:           rec.Self,
		Highlight:      rec.Highlight,
		Users:          users,
		StatusmsgGroup: rec.StatusmsgGroup,
	}
}
