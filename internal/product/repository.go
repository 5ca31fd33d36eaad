package product

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByTenant(ctx context.Context, tenantID string) ([]model.Product, error)

	// FindLowStock returns every product, across tenants, at or below its
	// low-stock threshold.
	FindLowStock(ctx context.Context) ([]model.Product, error)
}
