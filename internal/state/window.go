package state

import (
	"sort"
	"strings"
	"sync"
	"time"

	"chat-relay/internal/models"
)

// DefaultMaxHistory is the transcript length kept in memory per window.
const DefaultMaxHistory = 10000

// User is a participant of a window.
type User struct {
	Nick        string
	Mode        string
	LastMessage time.Time
}

// Sender returns the author snapshot stored on messages.
func (u User) Sender() models.Sender {
	return models.Sender{Nick: u.Nick, Mode: u.Mode}
}

// Counters is the unread state of a window right after a message was appended.
type Counters struct {
	Unread      int
	Highlight   int
	FirstUnread int64
}

// Window is one conversation surface of a network: the server log, a
// channel or a private query. Safe for concurrent use.
type Window struct {
	id         int64
	name       string
	typ        models.WindowType
	maxHistory int

	mu          sync.Mutex
	muted       bool
	unread      int
	highlight   int
	firstUnread int64
	users       map[string]*User
	messages    []models.Message
}

// NewWindow creates an empty window. A non positive maxHistory disables trimming.
func NewWindow(id int64, name string, typ models.WindowType, maxHistory int) *Window {
	return &Window{
		id:         id,
		name:       name,
		typ:        typ,
		maxHistory: maxHistory,
		users:      make(map[string]*User),
	}
}

func (w *Window) ID() int64               { return w.id }
func (w *Window) Name() string            { return w.name }
func (w *Window) Type() models.WindowType { return w.typ }

func (w *Window) Muted() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.muted
}

func (w *Window) SetMuted(muted bool) {
	w.mu.Lock()
	w.muted = muted
	w.mu.Unlock()
}

// Counters returns the current unread state.
func (w *Window) Counters() Counters {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.countersLocked()
}

func (w *Window) countersLocked() Counters {
	return Counters{Unread: w.unread, Highlight: w.highlight, FirstUnread: w.firstUnread}
}

// HighlightCount is the number of unseen highlights.
func (w *Window) HighlightCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.highlight
}

// MarkRead clears the unread state, as when a front end opens the window.
func (w *Window) MarkRead() {
	w.mu.Lock()
	w.unread, w.highlight, w.firstUnread = 0, 0, 0
	w.mu.Unlock()
}

// AddUser adds or updates a participant.
func (w *Window) AddUser(nick, mode string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := strings.ToLower(nick)
	if u, ok := w.users[key]; ok {
		u.Nick = nick
		u.Mode = mode
		return
	}
	w.users[key] = &User{Nick: nick, Mode: mode}
}

// RemoveUser drops a participant.
func (w *Window) RemoveUser(nick string) {
	w.mu.Lock()
	delete(w.users, strings.ToLower(nick))
	w.mu.Unlock()
}

// FindUser looks a participant up by nick, case-insensitively.
func (w *Window) FindUser(nick string) (User, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	u, ok := w.users[strings.ToLower(nick)]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// GetUser returns the participant for nick, or a transient user carrying only
// the nick when there is none.
func (w *Window) GetUser(nick string) User {
	if u, ok := w.FindUser(nick); ok {
		return u
	}
	return User{Nick: nick}
}

// TouchUser records activity for a known participant.
func (w *Window) TouchUser(nick string, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if u, ok := w.users[strings.ToLower(nick)]; ok {
		u.LastMessage = at
	}
}

// Users returns the participant nicks sorted case-insensitively.
func (w *Window) Users() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.users))
	for _, u := range w.users {
		out = append(out, u.Nick)
	}
	sort.Slice(out, func(i, j int) bool { return strings.ToLower(out[i]) < strings.ToLower(out[j]) })
	return out
}

// PushMessage appends msg to the transcript and updates the unread state.
//
// When open is set the window is on screen somewhere and the counters are left
// alone. Otherwise a self-authored message marks the window read, and any
// other message bumps unread (if increasesUnread or highlighted) and the
// highlight counter (if highlighted), and pins firstUnread.
func (w *Window) PushMessage(msg models.Message, increasesUnread, open bool) Counters {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !open {
		if msg.Self {
			w.unread, w.highlight, w.firstUnread = 0, 0, 0
		} else {
			if increasesUnread || msg.Highlight {
				w.unread++
			}
			if msg.Highlight {
				w.highlight++
			}
			if w.firstUnread == 0 {
				w.firstUnread = msg.ID
			}
		}
	}

	stored := msg
	stored.ShowInActive = false
	w.messages = append(w.messages, stored)
	w.trimLocked()
	return w.countersLocked()
}

// PrependMessages inserts older messages ahead of the transcript.
func (w *Window) PrependMessages(msgs []models.Message) {
	if len(msgs) == 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	merged := make([]models.Message, 0, len(msgs)+len(w.messages))
	merged = append(merged, msgs...)
	w.messages = append(merged, w.messages...)
	w.trimLocked()
}

func (w *Window) trimLocked() {
	if w.maxHistory > 0 && len(w.messages) > w.maxHistory {
		w.messages = append([]models.Message(nil), w.messages[len(w.messages)-w.maxHistory:]...)
	}
}

// Messages returns a copy of the transcript, oldest first. A positive limit
// keeps only the newest limit entries.
func (w *Window) Messages(limit int) []models.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	msgs := w.messages
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]models.Message(nil), msgs...)
}

// View renders the window for front ends.
func (w *Window) View(withMessages bool) models.WindowView {
	v := models.WindowView{
		ID:    w.id,
		Name:  w.name,
		Type:  w.typ,
		Users: w.Users(),
	}
	if withMessages {
		v.Messages = w.Messages(0)
	}
	w.mu.Lock()
	v.Muted = w.muted
	v.Unread = w.unread
	v.Highlight = w.highlight
	v.FirstUnread = w.firstUnread
	w.mu.Unlock()
	return v
}
