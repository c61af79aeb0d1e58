package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/middleware"
	"chat-relay/internal/models"
	"chat-relay/internal/relay"
	"chat-relay/internal/state"
)

const defaultMessageLimit = 100

// EventHandler runs one inbound event through the relay pipeline.
type EventHandler interface {
	Handle(ctx context.Context, s *state.Session, n *state.Network, ev models.InboundEvent) relay.Result
}

// RelayHandler exposes the relay state of the authenticated user.
type RelayHandler struct {
	sessions *state.Registry
	events   EventHandler
	saver    relay.SessionSaver
	auditor  Auditor
}

// NewRelayHandler builds a RelayHandler. saver and auditor may be nil.
func NewRelayHandler(sessions *state.Registry, events EventHandler, saver relay.SessionSaver, auditor Auditor) *RelayHandler {
	return &RelayHandler{
		sessions: sessions,
		events:   events,
		saver:    saver,
		auditor:  auditor,
	}
}

// RegisterRoutes wires the relay endpoints onto an authenticated group.
func (h *RelayHandler) RegisterRoutes(r gin.IRouter) {
	r.POST("/networks/:network_id/events", h.PostEvent)
	r.GET("/networks", h.ListNetworks)
	r.GET("/windows/:window_id/messages", h.GetWindowMessages)
	r.PUT("/windows/:window_id/mute", h.SetWindowMuted)
	r.GET("/mentions", h.ListMentions)
	r.DELETE("/mentions", h.ClearMentions)
	r.DELETE("/mentions/:message_id", h.DeleteMention)
}

// PostEvent ingests one protocol event for a network of the user.
func (h *RelayHandler) PostEvent(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	n, err := s.Network(c.Param("network_id"))
	if err != nil {
		writeLookupError(c, err)
		return
	}

	var ev models.InboundEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.events.Handle(c.Request.Context(), s, n, ev)
	if res.Dropped != "" {
		c.JSON(http.StatusAccepted, gin.H{"dropped": res.Dropped})
		return
	}

	if res.Membership {
		body := gin.H{"membership": true}
		if res.Window != nil {
			body["window_id"] = res.Window.ID()
			body["created"] = res.Created
			body["users"] = res.Window.Users()
		}
		c.JSON(http.StatusOK, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     res.Message,
		"window_id":   res.Window.ID(),
		"created":     res.Created,
		"from_server": res.FromServer,
		"notified":    res.Notified,
	})
}

// ListNetworks returns the networks of the user with their windows.
func (h *RelayHandler) ListNetworks(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	networks := s.Networks()
	views := make([]models.NetworkView, 0, len(networks))
	for _, n := range networks {
		views = append(views, n.View())
	}
	c.JSON(http.StatusOK, gin.H{"networks": views})
}

// GetWindowMessages returns the newest messages of a window.
func (h *RelayHandler) GetWindowMessages(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	w, ok := h.window(c, s)
	if !ok {
		return
	}

	limit := defaultMessageLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, gin.H{"messages": w.Messages(limit)})
}

// SetWindowMuted mutes or unmutes a window and saves the session.
func (h *RelayHandler) SetWindowMuted(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	w, ok := h.window(c, s)
	if !ok {
		return
	}

	var req struct {
		Muted *bool `json:"muted" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	w.SetMuted(*req.Muted)
	if h.saver != nil {
		h.saver.SaveSession(s)
	}
	h.audit(c, fmt.Sprintf("window %d muted=%t", w.ID(), *req.Muted))

	c.JSON(http.StatusOK, gin.H{"window": w.View(false)})
}

// ListMentions returns the mention ledger, oldest first.
func (h *RelayHandler) ListMentions(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"mentions": s.Mentions().List()})
}

// ClearMentions dismisses every mention.
func (h *RelayHandler) ClearMentions(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Mentions().Clear()
	c.Status(http.StatusNoContent)
}

// DeleteMention dismisses the mention of one message.
func (h *RelayHandler) DeleteMention(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	msgID, err := strconv.ParseInt(c.Param("message_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message id"})
		return
	}
	if !s.Mentions().Remove(msgID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "mention not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RelayHandler) session(c *gin.Context) (*state.Session, bool) {
	s, err := h.sessions.Get(c.GetString(middleware.UserNameKey))
	if err != nil {
		writeLookupError(c, err)
		return nil, false
	}
	return s, true
}

func (h *RelayHandler) window(c *gin.Context, s *state.Session) (*state.Window, bool) {
	id, err := strconv.ParseInt(c.Param("window_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid window id"})
		return nil, false
	}
	_, w, err := s.FindWindow(id)
	if err != nil {
		writeLookupError(c, err)
		return nil, false
	}
	return w, true
}

func (h *RelayHandler) audit(c *gin.Context, text string) {
	if h.auditor == nil {
		return
	}
	h.auditor.Emit(c.Request.Context(), "INFO", text, requestIDFromContext(c), userNameFromContext(c))
}

func writeLookupError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, state.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, state.ErrNetworkNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "network not found"})
	case errors.Is(err, state.ErrWindowNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "window not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
	}
}
