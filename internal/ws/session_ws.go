package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"chat-relay/internal/logger"
	"chat-relay/internal/middleware"
	"chat-relay/internal/models"
	"chat-relay/internal/observability"
	"chat-relay/internal/state"
)

// SessionWebSocketHandler attaches front ends to the session of the
// authenticated user.
type SessionWebSocketHandler struct {
	hub      *Hub
	sessions *state.Registry
	log      logger.Logger
}

// NewSessionWebSocketHandler constructs a SessionWebSocketHandler.
func NewSessionWebSocketHandler(hub *Hub, sessions *state.Registry, log logger.Logger) *SessionWebSocketHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionWebSocketHandler{hub: hub, sessions: sessions, log: log}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, sends the session state and serves
// front end commands until the connection closes.
func (h *SessionWebSocketHandler) Handle(c *gin.Context) {
	userName := c.GetString(middleware.UserNameKey)
	s, err := h.sessions.Get(userName)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	ctx, span := otel.Tracer("chat-relay/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserName:    userName,
		UserAgent:   observability.UserAgentFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	client := h.hub.AddClient(s.Name(), conn, info)
	go h.hub.writePump(s.Name(), client)
	h.hub.Send(s.Name(), client, initEvent(s))

	observability.IncWSActive("session")
	_ = publishWSEvent(ctx, "ws_connect", s.Name(), info, "")

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(s.Name(), client)
			observability.DecWSActive("session")
			_ = publishWSEvent(ctx, "ws_disconnect", s.Name(), info, closeReason)
		}()
		for {
			var cmd models.ClientCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					_ = publishWSEvent(ctx, "ws_error", s.Name(), info, closeReason)
				}
				return
			}
			h.handleCommand(s, client, cmd)
		}
	}()
}

func (h *SessionWebSocketHandler) handleCommand(s *state.Session, client *Client, cmd models.ClientCommand) {
	switch cmd.Type {
	case "open":
		_, w, err := s.FindWindow(cmd.Target)
		if err != nil {
			h.log.Debug("open for unknown window", logger.Int64("window_id", cmd.Target))
			return
		}
		h.hub.SetOpenWindow(client, w.ID())
		w.MarkRead()
	case "close":
		h.hub.SetOpenWindow(client, 0)
	default:
		h.log.Debug("unknown websocket command", logger.String("type", cmd.Type))
	}
}

func initEvent(s *state.Session) models.InitEvent {
	networks := s.Networks()
	views := make([]models.NetworkView, 0, len(networks))
	for _, n := range networks {
		views = append(views, n.View())
	}
	return models.InitEvent{Type: "init", Networks: views}
}
