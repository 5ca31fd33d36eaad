package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/notification"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/tenant"
)

type subscriptionUseCase struct {
	repo     subscription.Repository
	tenants  tenant.Repository
	notifier notification.UseCase
	logger   logger.ZapLogger
	now      func() time.Time
}

type Option func(*subscriptionUseCase)

func WithClock(now func() time.Time) Option {
	return func(uc *subscriptionUseCase) { uc.now = now }
}

func NewSubscriptionUseCase(repo subscription.Repository, tenants tenant.Repository, notifier notification.UseCase, log logger.ZapLogger, opts ...Option) subscription.UseCase {
	uc := &subscriptionUseCase{
		repo:     repo,
		tenants:  tenants,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *subscriptionUseCase) findTenant(ctx context.Context, id string) (*model.Tenant, error) {
	if id == "" {
		return nil, apperror.Validation("tenantId is required")
	}
	t, err := uc.tenants.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if t == nil {
		return nil, apperror.NotFound("tenant %s", id)
	}
	return t, nil
}

func (uc *subscriptionUseCase) Status(ctx context.Context, tenantID string) (*dto.StatusResponse, error) {
	t, err := uc.findTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	now := uc.now()
	active := subscription.IsActive(t, now)
	return &dto.StatusResponse{
		Active:        active,
		DaysRemaining: subscription.DaysRemaining(t, now),
		Locked:        !active,
		ExpiryDate:    t.ExpiryDate,
		Plan:          t.Plan,
	}, nil
}

func (uc *subscriptionUseCase) Renew(ctx context.Context, input *dto.RenewRequest) (*model.Tenant, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	t, err := uc.findTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	expiry, err := subscription.ExtendExpiry(t.ExpiryDate, uc.now(), input.Plan)
	if err != nil {
		return nil, err
	}
	if err := uc.tenants.UpdateSubscription(ctx, t.ID, input.Plan, expiry); err != nil {
		return nil, err
	}
	t.Plan = input.Plan
	t.ExpiryDate = expiry

	uc.logger.Info("subscription renewed",
		zap.String("tenant_id", t.ID),
		zap.String("plan", string(t.Plan)),
		zap.Time("expiry_date", expiry),
	)
	uc.notify(ctx, &t.ID, renewedMessage(t), model.NotificationSuccess)
	return t, nil
}

func (uc *subscriptionUseCase) RequestPayment(ctx context.Context, input *dto.PayRequest) (*model.SubscriptionPayment, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := subscription.PlanDuration(input.Plan); err != nil {
		return nil, err
	}
	t, err := uc.findTenant(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	p := &model.SubscriptionPayment{
		BaseModel: model.BaseModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		TenantID:  t.ID,
		Plan:      input.Plan,
		Amount:    input.Amount,
		Status:    model.PaymentPending,
	}
	if err := uc.repo.CreatePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	uc.logger.Info("subscription payment requested",
		zap.String("payment_id", p.ID),
		zap.String("tenant_id", t.ID),
		zap.String("amount", p.Amount.String()),
	)
	uc.notify(ctx, nil, fmt.Sprintf("Payment %s from %s is awaiting review.", p.ID, t.Name), model.NotificationInfo)
	return p, nil
}

func (uc *subscriptionUseCase) ApprovePayment(ctx context.Context, paymentID string) (*model.SubscriptionPayment, error) {
	if paymentID == "" {
		return nil, apperror.Validation("paymentId is required")
	}

	now := uc.now()
	p, t, err := uc.repo.ApprovePayment(ctx, paymentID, now, func(t *model.Tenant, plan model.Plan) (time.Time, error) {
		return subscription.ExtendExpiry(t.ExpiryDate, now, plan)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("subscription payment approved",
		zap.String("payment_id", p.ID),
		zap.String("tenant_id", t.ID),
		zap.Time("expiry_date", t.ExpiryDate),
	)
	uc.notify(ctx, &t.ID, renewedMessage(t), model.NotificationSuccess)
	return p, nil
}

func (uc *subscriptionUseCase) RejectPayment(ctx context.Context, paymentID string) (*model.SubscriptionPayment, error) {
	if paymentID == "" {
		return nil, apperror.Validation("paymentId is required")
	}

	p, err := uc.repo.RejectPayment(ctx, paymentID, uc.now())
	if err != nil {
		return nil, err
	}

	uc.logger.Info("subscription payment rejected",
		zap.String("payment_id", p.ID),
		zap.String("tenant_id", p.TenantID),
	)
	uc.notify(ctx, &p.TenantID, "Your subscription payment was rejected. Please contact support.", model.NotificationError)
	return p, nil
}

func (uc *subscriptionUseCase) ApprovePendingPayment(ctx context.Context, paymentID string) (*model.PendingPayment, error) {
	return uc.decidePending(ctx, paymentID, model.PaymentApproved)
}

func (uc *subscriptionUseCase) RejectPendingPayment(ctx context.Context, paymentID string) (*model.PendingPayment, error) {
	return uc.decidePending(ctx, paymentID, model.PaymentRejected)
}

func (uc *subscriptionUseCase) decidePending(ctx context.Context, paymentID string, status model.PaymentStatus) (*model.PendingPayment, error) {
	if paymentID == "" {
		return nil, apperror.Validation("paymentId is required")
	}

	p, err := uc.repo.DecidePendingPayment(ctx, paymentID, status, uc.now())
	if err != nil {
		return nil, err
	}

	uc.logger.Info("onboarding payment decided",
		zap.String("payment_id", p.ID),
		zap.String("status", string(status)),
	)
	if status == model.PaymentApproved {
		uc.notify(ctx, nil, fmt.Sprintf("Store %s (%s) approved on the %s plan.", p.StoreName, p.Email, p.Plan), model.NotificationSuccess)
	}
	return p, nil
}

// notify is best effort: the state change has already been committed.
func (uc *subscriptionUseCase) notify(ctx context.Context, tenantID *string, msg string, typ model.NotificationType) {
	if uc.notifier == nil {
		return
	}
	if _, err := uc.notifier.Notify(ctx, tenantID, msg, typ); err != nil {
		uc.logger.Error("failed to insert notification", zap.Error(err))
	}
}

func renewedMessage(t *model.Tenant) string {
	return fmt.Sprintf("Subscription renewed on the %s plan. Active until %s.", t.Plan, t.ExpiryDate.Format(time.DateOnly))
}
