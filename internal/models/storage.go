package models

import "time"

// NetworkRecord is the persisted form of a network.
type NetworkRecord struct {
	UUID       string    `db:"uuid" json:"uuid"`
	UserName   string    `db:"user_name" json:"user_name"`
	Name       string    `db:"name" json:"name"`
	Host       string    `db:"host" json:"host"`
	Nick       string    `db:"nick" json:"nick"`
	IgnoreList string    `db:"ignore_list" json:"ignore_list"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// WindowRecord is the persisted form of a window.
type WindowRecord struct {
	NetworkUUID string     `db:"network_uuid" json:"network_uuid"`
	Name        string     `db:"name" json:"name"`
	Type        WindowType `db:"type" json:"type"`
	Muted       bool       `db:"muted" json:"muted"`
	Position    int        `db:"position" json:"position"`
}

// MessageRecord is a logged message row.
type MessageRecord struct {
	ID             int64     `db:"id" json:"id"`
	UserName       string    `db:"user_name" json:"user_name"`
	NetworkUUID    string    `db:"network_uuid" json:"network_uuid"`
	Window         string    `db:"window_name" json:"window"`
	Type           string    `db:"type" json:"type"`
	Time           time.Time `db:"time" json:"time"`
	Text           string    `db:"text" json:"text"`
	SenderNick     string    `db:"sender_nick" json:"sender_nick"`
	SenderMode     string    `db:"sender_mode" json:"sender_mode"`
	Self           bool      `db:"self" json:"self"`
	Highlight      bool      `db:"highlight" json:"highlight"`
	Users          string    `db:"users" json:"users"`
	StatusmsgGroup string    `db:"statusmsg_group" json:"statusmsg_group"`
}
