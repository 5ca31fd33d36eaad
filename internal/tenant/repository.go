package tenant

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

// Repository is the read path to tenant rows plus the one field the core
// owns, the subscription expiry.
type Repository interface {
	Create(ctx context.Context, t *model.Tenant) error
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
	FindAll(ctx context.Context) ([]model.Tenant, error)
	UpdateSubscription(ctx context.Context, id string, plan model.Plan, expiry time.Time) error
}
