package repository

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, tenant_id, name, price, stock, low_stock_threshold, image_url, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (` + productColumns + `)
        VALUES (
            :id, :tenant_id, :name, :price, :stock, :low_stock_threshold,
            :image_url, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByTenant(ctx context.Context, tenantID string) ([]model.Product, error) {
	products := []model.Product{}
	query := r.DB.Rebind(`SELECT ` + productColumns + ` FROM products WHERE tenant_id = ? ORDER BY name`)
	err := r.DB.SelectContext(ctx, &products, query, tenantID)
	return products, err
}

func (r *PGRepository) FindLowStock(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE stock <= low_stock_threshold ORDER BY tenant_id, name`
	err := r.DB.SelectContext(ctx, &products, query)
	return products, err
}
