// Package mentions keeps the bounded history of highlights for one session.
package mentions

import (
	"sync"

	"chat-relay/internal/models"
)

// DefaultCapacity is the number of mentions a session keeps.
const DefaultCapacity = 100

// Ledger is a fixed-capacity FIFO of mentions. When full, pushing evicts the
// oldest entry. Safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	buf   []models.Mention
	start int
	size  int
}

// New creates a ledger holding at most capacity entries.
func New(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{buf: make([]models.Mention, capacity)}
}

// Push appends m, evicting the oldest entry when the ledger is full.
func (l *Ledger) Push(m models.Mention) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.size < len(l.buf) {
		l.buf[(l.start+l.size)%len(l.buf)] = m
		l.size++
		return
	}
	l.buf[l.start] = m
	l.start = (l.start + 1) % len(l.buf)
}

// List returns the mentions oldest first.
func (l *Ledger) List() []models.Mention {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Ledger) snapshot() []models.Mention {
	out := make([]models.Mention, 0, l.size)
	for i := 0; i < l.size; i++ {
		out = append(out, l.buf[(l.start+i)%len(l.buf)])
	}
	return out
}

// Len reports the number of stored mentions.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

// Cap reports the capacity.
func (l *Ledger) Cap() int {
	return len(l.buf)
}

// Remove drops the mention for msgID. It reports whether one was found.
func (l *Ledger) Remove(msgID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.snapshot()
	n := 0
	for _, m := range kept {
		if m.MsgID != msgID {
			kept[n] = m
			n++
		}
	}
	if n == len(kept) {
		return false
	}
	l.reset()
	for _, m := range kept[:n] {
		l.buf[l.size] = m
		l.size++
	}
	return true
}

// Clear removes every mention.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reset()
}

func (l *Ledger) reset() {
	clear(l.buf)
	l.start = 0
	l.size = 0
}
