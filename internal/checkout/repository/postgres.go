package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreateWithStockDecrement(ctx context.Context, txn *model.Transaction) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Record the transaction
	insertQuery := `
        INSERT INTO transactions (id, tenant_id, total, items, created_at)
        VALUES (:id, :tenant_id, :total, :items, :created_at)
    `
	if _, err := tx.NamedExecContext(ctx, insertQuery, txn); err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	// 2. Decrement stock per line. No floor: stock may go negative.
	decrementQuery := tx.Rebind(`
        UPDATE products
        SET stock = stock - ?, updated_at = ?
        WHERE id = ? AND tenant_id = ?
    `)
	for _, item := range txn.Items {
		res, err := tx.ExecContext(ctx, decrementQuery, item.Quantity, txn.CreatedAt, item.ProductID, txn.TenantID)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for %s: %w", item.ProductID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NotFound("product %s for tenant %s", item.ProductID, txn.TenantID)
		}
	}

	return tx.Commit()
}

func (r *PGRepository) FindByTenant(ctx context.Context, tenantID string) ([]model.Transaction, error) {
	txns := []model.Transaction{}
	query := r.DB.Rebind(`
        SELECT id, tenant_id, total, items, created_at
        FROM transactions
        WHERE tenant_id = ?
        ORDER BY created_at DESC, id DESC
    `)
	err := r.DB.SelectContext(ctx, &txns, query, tenantID)
	return txns, err
}

func (r *PGRepository) StatsBetween(ctx context.Context, tenantID string, from, to time.Time) (*dto.Stats, error) {
	var stats dto.Stats
	query := r.DB.Rebind(`
        SELECT COALESCE(SUM(total), 0) AS total, COUNT(*) AS count
        FROM transactions
        WHERE tenant_id = ? AND created_at >= ? AND created_at < ?
    `)
	if err := r.DB.GetContext(ctx, &stats, query, tenantID, from.UTC(), to.UTC()); err != nil {
		return nil, err
	}
	stats.Total = stats.Total.Round(2)
	return &stats, nil
}
