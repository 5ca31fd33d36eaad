package product

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

type UseCase interface {
	ListProducts(ctx context.Context, tenantID string) ([]model.Product, error)
}
