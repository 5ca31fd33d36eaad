package repository

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Insert(ctx context.Context, n *model.Notification) (bool, error) {
	query := `
        INSERT INTO notifications (id, tenant_id, message, type, is_read, day, dedup_key, created_at)
        VALUES (:id, :tenant_id, :message, :type, :is_read, :day, :dedup_key, :created_at)
        ON CONFLICT (dedup_key) DO NOTHING
    `
	res, err := r.DB.NamedExecContext(ctx, query, n)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *PGRepository) ListLatest(ctx context.Context, tenantID string, limit int) ([]model.Notification, error) {
	items := []model.Notification{}
	query := r.DB.Rebind(`
        SELECT id, tenant_id, message, type, is_read, day, dedup_key, created_at
        FROM notifications
        WHERE tenant_id = ?
        ORDER BY created_at DESC, id DESC
        LIMIT ?
    `)
	err := r.DB.SelectContext(ctx, &items, query, tenantID, limit)
	return items, err
}

func (r *PGRepository) MarkAllRead(ctx context.Context, tenantID string) (int64, error) {
	query := r.DB.Rebind(`UPDATE notifications SET is_read = ? WHERE tenant_id = ? AND is_read = ?`)
	res, err := r.DB.ExecContext(ctx, query, true, tenantID, false)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
