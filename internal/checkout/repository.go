package checkout

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

type Repository interface {
	// CreateWithStockDecrement inserts txn and decrements stock for every
	// line item in one database transaction.
	CreateWithStockDecrement(ctx context.Context, txn *model.Transaction) error
	FindByTenant(ctx context.Context, tenantID string) ([]model.Transaction, error)
	StatsBetween(ctx context.Context, tenantID string, from, to time.Time) (*dto.Stats, error)
}

// EventPublisher receives committed transactions. Optional.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}
