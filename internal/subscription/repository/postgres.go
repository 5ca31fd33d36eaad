package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription"
	"github.com/jmoiron/sqlx"
)

const (
	paymentColumns = `id, tenant_id, plan, amount, status, created_at, updated_at, processed_at`
	pendingColumns = `id, store_name, email, plan, amount, status, created_at, updated_at, processed_at`
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) CreatePayment(ctx context.Context, p *model.SubscriptionPayment) error {
	query := `
        INSERT INTO subscription_payments (` + paymentColumns + `)
        VALUES (:id, :tenant_id, :plan, :amount, :status, :created_at, :updated_at, :processed_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) ApprovePayment(ctx context.Context, id string, processedAt time.Time, extend subscription.ExpiryFunc) (*model.SubscriptionPayment, *model.Tenant, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	// 1. Claim the pending row; only one caller can win this update
	if err := decide(ctx, tx, "subscription_payments", id, model.PaymentApproved, processedAt); err != nil {
		return nil, nil, err
	}

	payment, err := findPayment(ctx, tx, id)
	if err != nil {
		return nil, nil, err
	}
	if payment == nil {
		return nil, nil, apperror.NotFound("payment %s", id)
	}

	// 2. Move the tenant's expiry
	var t model.Tenant
	tenantQuery := tx.Rebind(`
        SELECT id, name, email, plan, expiry_date, status, created_at, updated_at
        FROM tenants WHERE id = ?
    `)
	if err := tx.GetContext(ctx, &t, tenantQuery, payment.TenantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.NotFound("tenant %s", payment.TenantID)
		}
		return nil, nil, err
	}

	expiry, err := extend(&t, payment.Plan)
	if err != nil {
		return nil, nil, err
	}
	updateQuery := tx.Rebind(`UPDATE tenants SET plan = ?, expiry_date = ?, updated_at = ? WHERE id = ?`)
	if _, err := tx.ExecContext(ctx, updateQuery, payment.Plan, expiry.UTC(), processedAt.UTC(), t.ID); err != nil {
		return nil, nil, fmt.Errorf("failed to extend tenant %s: %w", t.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	t.Plan = payment.Plan
	t.ExpiryDate = expiry.UTC()
	t.UpdatedAt = processedAt.UTC()
	return payment, &t, nil
}

func (r *PGRepository) RejectPayment(ctx context.Context, id string, processedAt time.Time) (*model.SubscriptionPayment, error) {
	if err := decide(ctx, r.DB, "subscription_payments", id, model.PaymentRejected, processedAt); err != nil {
		return nil, err
	}
	return findPayment(ctx, r.DB, id)
}

func (r *PGRepository) CreatePendingPayment(ctx context.Context, p *model.PendingPayment) error {
	query := `
        INSERT INTO pending_payments (` + pendingColumns + `)
        VALUES (:id, :store_name, :email, :plan, :amount, :status, :created_at, :updated_at, :processed_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) DecidePendingPayment(ctx context.Context, id string, status model.PaymentStatus, processedAt time.Time) (*model.PendingPayment, error) {
	if err := decide(ctx, r.DB, "pending_payments", id, status, processedAt); err != nil {
		return nil, err
	}

	var p model.PendingPayment
	query := r.DB.Rebind(`SELECT ` + pendingColumns + ` FROM pending_payments WHERE id = ?`)
	if err := r.DB.GetContext(ctx, &p, query, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// decide performs the single pending -> terminal transition for a row in
// table. A miss is reported as ErrNotFound or ErrAlreadyProcessed.
func decide(ctx context.Context, db sqlx.ExtContext, table, id string, status model.PaymentStatus, processedAt time.Time) error {
	query := db.Rebind(`
        UPDATE ` + table + `
        SET status = ?, processed_at = ?, updated_at = ?
        WHERE id = ? AND status = ?
    `)
	at := processedAt.UTC()
	res, err := db.ExecContext(ctx, query, status, at, at, id, model.PaymentPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var current model.PaymentStatus
	err = sqlx.GetContext(ctx, db, &current, db.Rebind(`SELECT status FROM `+table+` WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound("payment %s", id)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("payment %s is %s: %w", id, current, apperror.ErrAlreadyProcessed)
}

func findPayment(ctx context.Context, db sqlx.ExtContext, id string) (*model.SubscriptionPayment, error) {
	var p model.SubscriptionPayment
	query := db.Rebind(`SELECT ` + paymentColumns + ` FROM subscription_payments WHERE id = ?`)
	err := sqlx.GetContext(ctx, db, &p, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}
