package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

// MessageRepository stores the message log of every window.
type MessageRepository interface {
	AppendMessage(ctx context.Context, rec models.MessageRecord) (int64, error)
	ListWindowMessages(ctx context.Context, userName, networkUUID, window string, limit int) ([]models.MessageRecord, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// AppendMessage logs a message and returns its row id.
func (r *MessageRepo) AppendMessage(ctx context.Context, rec models.MessageRecord) (int64, error) {
	query := r.db.Rebind(`INSERT INTO messages
        (user_name, network_uuid, window_name, type, time, text, sender_nick, sender_mode, self, highlight, users, statusmsg_group)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	var id int64
	err := r.db.QueryRowxContext(ctx, query,
		rec.UserName, rec.NetworkUUID, rec.Window, rec.Type, rec.Time.UTC(), rec.Text,
		rec.SenderNick, rec.SenderMode, rec.Self, rec.Highlight, rec.Users, rec.StatusmsgGroup,
	).Scan(&id)
	return id, err
}

// ListWindowMessages returns the newest limit messages of a window, oldest first.
func (r *MessageRepo) ListWindowMessages(ctx context.Context, userName, networkUUID, window string, limit int) ([]models.MessageRecord, error) {
	query := r.db.Rebind(`SELECT id, user_name, network_uuid, window_name, type, time, text, sender_nick, sender_mode, self, highlight, users, statusmsg_group
        FROM messages
        WHERE user_name=? AND network_uuid=? AND LOWER(window_name)=LOWER(?)
        ORDER BY id DESC
        LIMIT ?`)
	var recs []models.MessageRecord
	if err := r.db.SelectContext(ctx, &recs, query, userName, networkUUID, window, limit); err != nil {
		return nil, err
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}
