package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const tenantColumns = `id, name, email, plan, expiry_date, status, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, t *model.Tenant) error {
	query := `
        INSERT INTO tenants (` + tenantColumns + `)
        VALUES (:id, :name, :email, :plan, :expiry_date, :status, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, t)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	var t model.Tenant
	query := r.DB.Rebind(`SELECT ` + tenantColumns + ` FROM tenants WHERE id = ?`)
	err := r.DB.GetContext(ctx, &t, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *PGRepository) FindAll(ctx context.Context) ([]model.Tenant, error) {
	var tenants []model.Tenant
	query := `SELECT ` + tenantColumns + ` FROM tenants ORDER BY created_at`
	err := r.DB.SelectContext(ctx, &tenants, query)
	return tenants, err
}

func (r *PGRepository) UpdateSubscription(ctx context.Context, id string, plan model.Plan, expiry time.Time) error {
	query := r.DB.Rebind(`UPDATE tenants SET plan = ?, expiry_date = ?, updated_at = ? WHERE id = ?`)
	res, err := r.DB.ExecContext(ctx, query, plan, expiry.UTC(), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("tenant %s", id)
	}
	return nil
}
