package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"chat-relay/internal/models"
)

// NetworkRepository persists networks and their open windows.
type NetworkRepository interface {
	SaveNetwork(ctx context.Context, rec models.NetworkRecord, windows []models.WindowRecord) error
	ListNetworks(ctx context.Context, userName string) ([]models.NetworkRecord, error)
	ListWindows(ctx context.Context, networkUUID string) ([]models.WindowRecord, error)
}

// NetworkRepo is a sqlx implementation of NetworkRepository.
type NetworkRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewNetworkRepo constructs a NetworkRepo.
func NewNetworkRepo(db *sqlx.DB) *NetworkRepo {
	return &NetworkRepo{db: db, now: time.Now}
}

// SaveNetwork upserts the network row and replaces its window list.
func (r *NetworkRepo) SaveNetwork(ctx context.Context, rec models.NetworkRecord, windows []models.WindowRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, tx.Rebind(`INSERT INTO networks (uuid, user_name, name, host, nick, ignore_list, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (uuid) DO UPDATE SET
            user_name = EXCLUDED.user_name,
            name = EXCLUDED.name,
            host = EXCLUDED.host,
            nick = EXCLUDED.nick,
            ignore_list = EXCLUDED.ignore_list,
            updated_at = EXCLUDED.updated_at`),
		rec.UUID, rec.UserName, rec.Name, rec.Host, rec.Nick, rec.IgnoreList, r.now().UTC())
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM windows WHERE network_uuid=?`), rec.UUID); err != nil {
		return err
	}
	insert := tx.Rebind(`INSERT INTO windows (network_uuid, name, type, muted, position) VALUES (?, ?, ?, ?, ?)`)
	for _, w := range windows {
		if _, err := tx.ExecContext(ctx, insert, rec.UUID, w.Name, w.Type, w.Muted, w.Position); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListNetworks returns the saved networks of a user.
func (r *NetworkRepo) ListNetworks(ctx context.Context, userName string) ([]models.NetworkRecord, error) {
	var recs []models.NetworkRecord
	err := r.db.SelectContext(ctx, &recs, r.db.Rebind(`SELECT uuid, user_name, name, host, nick, ignore_list, updated_at
        FROM networks WHERE user_name=? ORDER BY name`), userName)
	return recs, err
}

// ListWindows returns the saved windows of a network in display order.
func (r *NetworkRepo) ListWindows(ctx context.Context, networkUUID string) ([]models.WindowRecord, error) {
	var recs []models.WindowRecord
	err := r.db.SelectContext(ctx, &recs, r.db.Rebind(`SELECT network_uuid, name, type, muted, position
        FROM windows WHERE network_uuid=? ORDER BY position`), networkUUID)
	return recs, err
}
