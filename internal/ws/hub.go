package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chat-relay/internal/async"
	"chat-relay/internal/logger"
	"chat-relay/internal/models"
	"chat-relay/internal/observability"
	"chat-relay/internal/state"
)

const (
	routingKey = "ws_events.sessions"
	sendBuffer = 256
	writeWait  = 10 * time.Second
)

// Client is one front end attached to a session.
type Client struct {
	conn *websocket.Conn
	info ConnInfo
	send chan []byte

	// guarded by Hub.mu
	open   int64
	closed bool
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo { return c.info }

// Hub maintains the front ends attached to each session and fans relay
// events out to them. Sends never block the caller: a client whose buffer
// is full is dropped, and the drop is published after the hub lock is
// released.
type Hub struct {
	rooms map[string]map[*Client]bool
	mu    sync.RWMutex
	run   async.Runner
	log   logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
		run:   async.Go,
		log:   log,
	}
}

// WithRunner sets the runner used to publish connection events.
func (h *Hub) WithRunner(run async.Runner) *Hub {
	if run != nil {
		h.run = run
	}
	return h
}

// AddClient registers a connection for the session. conn may be nil in tests;
// queued payloads then stay on the client's send channel.
func (h *Hub) AddClient(session string, conn *websocket.Conn, info ConnInfo) *Client {
	c := &Client{conn: conn, info: info, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[session]; !ok {
		h.rooms[session] = make(map[*Client]bool)
	}
	h.rooms[session][c] = true
	return c
}

// RemoveClient unregisters the client and closes its send channel.
func (h *Hub) RemoveClient(session string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(session, c)
}

func (h *Hub) removeLocked(session string, c *Client) {
	if clients, ok := h.rooms[session]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.rooms, session)
		}
	}
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ClientCount returns the number of front ends attached to the session.
func (h *Hub) ClientCount(session string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[session])
}

// SetOpenWindow records the window the client is currently showing.
func (h *Hub) SetOpenWindow(c *Client, windowID int64) {
	h.mu.Lock()
	c.open = windowID
	h.mu.Unlock()
}

// IsWindowOpen reports whether any client of the session shows the window.
func (h *Hub) IsWindowOpen(s *state.Session, windowID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[s.Name()] {
		if c.open == windowID {
			return true
		}
	}
	return false
}

// WindowCreated sends a join event for the new window.
func (h *Hub) WindowCreated(s *state.Session, n *state.Network, w *state.Window, index int) {
	h.broadcast(s.Name(), models.JoinEvent{
		Type:    "join",
		Network: n.UUID(),
		Chan:    w.View(true),
		Index:   index,
	})
}

// MessageAppended sends a msg event with the counters after the append.
func (h *Hub) MessageAppended(s *state.Session, w *state.Window, msg models.Message, c state.Counters) {
	h.broadcast(s.Name(), models.MsgEvent{
		Type:      "msg",
		Chan:      w.ID(),
		Msg:       msg,
		Unread:    c.Unread,
		Highlight: c.Highlight,
	})
}

// BacklogLoaded sends a more event carrying stored history.
func (h *Hub) BacklogLoaded(s *state.Session, w *state.Window, msgs []models.Message) {
	if len(msgs) == 0 {
		return
	}
	h.broadcast(s.Name(), models.MoreEvent{Type: "more", Chan: w.ID(), Messages: msgs})
}

// Send queues an event for a single client.
func (h *Hub) Send(session string, c *Client, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("websocket marshal error", logger.Error(err))
		return
	}
	h.mu.Lock()
	dropped := h.enqueueLocked(session, c, payload)
	h.mu.Unlock()
	if dropped {
		h.publishDropped(session, []ConnInfo{c.info})
	}
}

func (h *Hub) broadcast(session string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.log.Error("websocket marshal error", logger.Error(err))
		return
	}
	var dropped []ConnInfo
	h.mu.Lock()
	for c := range h.rooms[session] {
		if h.enqueueLocked(session, c, payload) {
			dropped = append(dropped, c.info)
		}
	}
	h.mu.Unlock()
	h.publishDropped(session, dropped)
}

// enqueueLocked queues payload for c and reports whether c was dropped
// because its buffer was full.
func (h *Hub) enqueueLocked(session string, c *Client, payload []byte) bool {
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return false
	default:
		h.log.Warn("websocket client too slow, dropping",
			logger.String("session", session),
			logger.String("conn_id", c.info.ConnID),
		)
		h.removeLocked(session, c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
		return true
	}
}

// publishDropped must be called without h.mu held.
func (h *Hub) publishDropped(session string, infos []ConnInfo) {
	for _, info := range infos {
		h.run.Do(h.log, "publish_ws_error", 0, func(ctx context.Context) error {
			return publishWSEvent(ctx, "ws_error", session, info, "send buffer full")
		})
	}
}

// writePump drains the client's send channel onto the connection.
func (h *Hub) writePump(session string, c *Client) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn("websocket write error", logger.String("conn_id", c.info.ConnID), logger.Error(err))
			_ = c.conn.Close()
			h.RemoveClient(session, c)
			_ = publishWSEvent(context.Background(), "ws_error", session, c.info, err.Error())
			for range c.send {
			}
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func publishWSEvent(ctx context.Context, event, session string, info ConnInfo, reason string) error {
	observability.IncWSEvent("session", event)
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "session",
			"resource_id": session,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_name":  info.UserName,
			"user_agent": info.UserAgent,
			"ip":         info.IP,
		},
	}
	return observability.PublishEvent(ctx, routingKey,
		observability.NewEventEnvelope("ws_events", event, payload),
		observability.BuildHeaders(info.RequestID, info.TraceID))
}
