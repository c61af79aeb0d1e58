package models

import "time"

// MessageType is the kind of a relayed message.
type MessageType string

const (
	TypeNotice  MessageType = "notice"
	TypeAction  MessageType = "action"
	TypeMessage MessageType = "message"
	TypeWallops MessageType = "wallops"
)

// Sender is the author of a message as seen when it was received.
type Sender struct {
	Nick string `json:"nick"`
	Mode string `json:"mode,omitempty"`
}

// Message represents a chat message appended to a window transcript.
// It is not modified after the relay pipeline has appended it.
type Message struct {
	ID             int64       `json:"id"`
	Type           MessageType `json:"type"`
	Time           time.Time   `json:"time"`
	Text           string      `json:"text"`
	From           Sender      `json:"from"`
	Self           bool        `json:"self"`
	Highlight      bool        `json:"highlight"`
	Users          []string    `json:"users"`
	StatusmsgGroup string      `json:"statusmsgGroup,omitempty"`
	ShowInActive   bool        `json:"showInActive,omitempty"`
}

// InboundEvent is one classified protocol event delivered by the connection layer.
// A zero Time means the server did not supply one.
type InboundEvent struct {
	Command    string    `json:"command" binding:"required"`
	Nick       string    `json:"nick"`
	Ident      string    `json:"ident"`
	Hostname   string    `json:"hostname"`
	Target     string    `json:"target"`
	Message    string    `json:"message"`
	Time       time.Time `json:"time"`
	Group      string    `json:"group"`
	FromServer bool      `json:"from_server"`
}

// Mention is a snapshot of a highlighted channel message kept in the mention ledger.
type Mention struct {
	ChanID int64       `json:"chanId"`
	MsgID  int64       `json:"msgId"`
	Type   MessageType `json:"type"`
	Time   int64       `json:"time"`
	Text   string      `json:"text"`
	From   Sender      `json:"from"`
}

// Notification is the payload handed to the push delivery transport.
type Notification struct {
	Type      string `json:"type"`
	ChanID    int64  `json:"chanId"`
	Timestamp int64  `json:"timestamp"`
	Title     string `json:"title"`
	Body      string `json:"body"`
}
