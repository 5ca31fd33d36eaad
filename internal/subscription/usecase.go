package subscription

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription/dto"
)

type UseCase interface {
	Status(ctx context.Context, tenantID string) (*dto.StatusResponse, error)
	Renew(ctx context.Context, input *dto.RenewRequest) (*model.Tenant, error)
	RequestPayment(ctx context.Context, input *dto.PayRequest) (*model.SubscriptionPayment, error)
	ApprovePayment(ctx context.Context, paymentID string) (*model.SubscriptionPayment, error)
	RejectPayment(ctx context.Context, paymentID string) (*model.SubscriptionPayment, error)
	ApprovePendingPayment(ctx context.Context, paymentID string) (*model.PendingPayment, error)
	RejectPendingPayment(ctx context.Context, paymentID string) (*model.PendingPayment, error)
}
