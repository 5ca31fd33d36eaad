package subscription

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

// ExpiryFunc computes a tenant's new expiry inside the approval transaction.
type ExpiryFunc func(t *model.Tenant, plan model.Plan) (time.Time, error)

type Repository interface {
	CreatePayment(ctx context.Context, p *model.SubscriptionPayment) error

	// ApprovePayment moves a pending payment to approved and applies extend to
	// its tenant, both in one transaction.
	ApprovePayment(ctx context.Context, id string, processedAt time.Time, extend ExpiryFunc) (*model.SubscriptionPayment, *model.Tenant, error)
	RejectPayment(ctx context.Context, id string, processedAt time.Time) (*model.SubscriptionPayment, error)

	CreatePendingPayment(ctx context.Context, p *model.PendingPayment) error
	DecidePendingPayment(ctx context.Context, id string, status model.PaymentStatus, processedAt time.Time) (*model.PendingPayment, error)
}
