package models

// WindowType distinguishes conversation surfaces.
type WindowType string

const (
	WindowLobby   WindowType = "lobby"
	WindowChannel WindowType = "channel"
	WindowQuery   WindowType = "query"
)

// WindowView is the front-end facing copy of a window.
type WindowView struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Type        WindowType `json:"type"`
	Muted       bool       `json:"muted"`
	Unread      int        `json:"unread"`
	Highlight   int        `json:"highlight"`
	FirstUnread int64      `json:"firstUnread"`
	Messages    []Message  `json:"messages,omitempty"`
	Users       []string   `json:"users,omitempty"`
}

// NetworkView is the front-end facing copy of a network.
type NetworkView struct {
	UUID     string       `json:"uuid"`
	Name     string       `json:"name"`
	Host     string       `json:"host"`
	Nick     string       `json:"nick"`
	Channels []WindowView `json:"channels"`
}

// JoinEvent announces a newly created window to attached front ends.
type JoinEvent struct {
	Type    string     `json:"type"`
	Network string     `json:"network"`
	Chan    WindowView `json:"chan"`
	Index   int        `json:"index"`
}

// MsgEvent is broadcasted through websockets when a message is appended.
type MsgEvent struct {
	Type      string  `json:"type"`
	Chan      int64   `json:"chan"`
	Msg       Message `json:"msg"`
	Unread    int     `json:"unread,omitempty"`
	Highlight int     `json:"highlight,omitempty"`
}

// MoreEvent carries backlog messages loaded for a window.
type MoreEvent struct {
	Type     string    `json:"type"`
	Chan     int64     `json:"chan"`
	Messages []Message `json:"messages"`
}

// InitEvent is sent to a front end right after it attaches.
type InitEvent struct {
	Type     string        `json:"type"`
	Networks []NetworkView `json:"networks"`
}

// ClientCommand is a request sent by a front end over the websocket.
type ClientCommand struct {
	Type   string `json:"type"`
	Target int64  `json:"target"`
}
