package state

import (
	"regexp"
	"strings"
	"sync"

	"chat-relay/internal/highlight"
	"chat-relay/internal/ircfmt"
	"chat-relay/internal/models"
)

// IDSource hands out session-unique window ids.
type IDSource interface {
	NextWindowID() int64
}

// NetworkOptions describes a network when it is added to a session.
type NetworkOptions struct {
	UUID       string
	Name       string
	Host       string
	Nick       string
	IgnoreList []string
}

// Network is one IRC network connection of a session. Windows[0] is always
// the server log window. Safe for concurrent use; Serialize provides the
// per-network ordering of inbound events.
type Network struct {
	uuid string
	name string
	host string
	ids  IDSource

	inbound sync.Mutex

	mu          sync.RWMutex
	nick        string
	highlightRe *regexp.Regexp
	ignore      []ircfmt.Mask
	windows     []*Window
	maxHistory  int
}

func newNetwork(opts NetworkOptions, ids IDSource, maxHistory int) *Network {
	n := &Network{
		uuid:       opts.UUID,
		name:       opts.Name,
		host:       opts.Host,
		ids:        ids,
		maxHistory: maxHistory,
	}
	lobbyName := opts.Name
	if lobbyName == "" {
		lobbyName = opts.Host
	}
	n.windows = []*Window{NewWindow(ids.NextWindowID(), lobbyName, models.WindowLobby, maxHistory)}
	n.SetNick(opts.Nick)
	n.SetIgnoreList(opts.IgnoreList)
	return n
}

func (n *Network) UUID() string { return n.uuid }
func (n *Network) Name() string { return n.name }
func (n *Network) Host() string { return n.host }

// Serialize runs fn while holding the inbound lock of the network.
func (n *Network) Serialize(fn func()) {
	n.inbound.Lock()
	defer n.inbound.Unlock()
	fn()
}

func (n *Network) Nick() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.nick
}

// SetNick changes the own nickname and rebuilds the network highlight pattern.
func (n *Network) SetNick(nick string) {
	re := highlight.NickPattern(nick)
	n.mu.Lock()
	n.nick = nick
	n.highlightRe = re
	n.mu.Unlock()
}

// HighlightPattern returns the pattern derived from the current nick.
func (n *Network) HighlightPattern() *regexp.Regexp {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.highlightRe
}

// SetIgnoreList replaces the ignored hostmasks.
func (n *Network) SetIgnoreList(masks []string) {
	parsed := make([]ircfmt.Mask, 0, len(masks))
	for _, m := range masks {
		if strings.TrimSpace(m) == "" {
			continue
		}
		parsed = append(parsed, ircfmt.CompileMask(m))
	}
	n.mu.Lock()
	n.ignore = parsed
	n.mu.Unlock()
}

// IgnoreList returns the ignored hostmasks in nick!ident@host form.
func (n *Network) IgnoreList() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]string, 0, len(n.ignore))
	for _, h := range n.ignore {
		out = append(out, h.String())
	}
	return out
}

// IsIgnored reports whether sender matches any ignore entry.
func (n *Network) IsIgnored(sender ircfmt.Hostmask) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, h := range n.ignore {
		if h.Matches(sender) {
			return true
		}
	}
	return false
}

// ServerWindow returns the server log window.
func (n *Network) ServerWindow() *Window {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.windows[0]
}

// Windows returns the windows in display order.
func (n *Network) Windows() []*Window {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]*Window(nil), n.windows...)
}

// FindWindow looks a window up by name, case-insensitively.
func (n *Network) FindWindow(name string) (*Window, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	w, _ := n.findLocked(name)
	return w, w != nil
}

func (n *Network) findLocked(name string) (*Window, int) {
	for i, w := range n.windows {
		if strings.EqualFold(w.name, name) {
			return w, i
		}
	}
	return nil, -1
}

// FindWindowByID looks a window up by id.
func (n *Network) FindWindowByID(id int64) (*Window, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, w := range n.windows {
		if w.id == id {
			return w, true
		}
	}
	return nil, false
}

// HasChannel reports whether name is an existing channel window.
func (n *Network) HasChannel(name string) bool {
	if name == "" {
		return false
	}
	w, ok := n.FindWindow(name)
	return ok && w.Type() == models.WindowChannel
}

// FindOrCreateWindow returns the window called name, creating it with typ
// when missing. created is true only for the call that created it; index is
// its position in the window list.
func (n *Network) FindOrCreateWindow(name string, typ models.WindowType) (w *Window, index int, created bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if w, i := n.findLocked(name); w != nil {
		return w, i, false
	}
	w = NewWindow(n.ids.NextWindowID(), name, typ, n.maxHistory)
	n.windows = append(n.windows, w)
	return w, len(n.windows) - 1, true
}

// RemoveWindow closes a channel or query window. The server window stays.
func (n *Network) RemoveWindow(id int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, w := range n.windows {
		if i > 0 && w.id == id {
			n.windows = append(n.windows[:i], n.windows[i+1:]...)
			return true
		}
	}
	return false
}

// ResolveTarget maps a message target to the window name it belongs to. A
// target equal to the own nick names the private conversation with sender.
func (n *Network) ResolveTarget(target, sender string) string {
	if target != "" && strings.EqualFold(target, n.Nick()) {
		return sender
	}
	return target
}

// View renders the network for front ends.
func (n *Network) View() models.NetworkView {
	v := models.NetworkView{
		UUID: n.uuid,
		Name: n.name,
		Host: n.host,
		Nick: n.Nick(),
	}
	for _, w := range n.Windows() {
		v.Channels = append(v.Channels, w.View(false))
	}
	return v
}

// Record returns the persisted form of the network and its windows.
func (n *Network) Record(user string) (models.NetworkRecord, []models.WindowRecord) {
	rec := models.NetworkRecord{
		UUID:       n.uuid,
		UserName:   user,
		Name:       n.name,
		Host:       n.host,
		Nick:       n.Nick(),
		IgnoreList: strings.Join(n.IgnoreList(), ","),
	}
	var windows []models.WindowRecord
	for i, w := range n.Windows() {
		if w.Type() == models.WindowLobby {
			continue
		}
		windows = append(windows, models.WindowRecord{
			NetworkUUID: n.uuid,
			Name:        w.Name(),
			Type:        w.Type(),
			Muted:       w.Muted(),
			Position:    i,
		})
	}
	return rec, windows
}
