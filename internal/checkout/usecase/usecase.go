package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/metrics"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription"
	"github.com/fekuna/omnipos-checkout-service/internal/tenant"
)

type checkoutUseCase struct {
	repo      checkout.Repository
	tenants   tenant.Repository
	publisher checkout.EventPublisher
	logger    logger.ZapLogger
	now       func() time.Time

	publishing sync.WaitGroup
}

type Option func(*checkoutUseCase)

func WithClock(now func() time.Time) Option {
	return func(uc *checkoutUseCase) { uc.now = now }
}

// WithPublisher emits a TransactionCreated event after each committed checkout.
func WithPublisher(p checkout.EventPublisher) Option {
	return func(uc *checkoutUseCase) { uc.publisher = p }
}

func NewCheckoutUseCase(repo checkout.Repository, tenants tenant.Repository, log logger.ZapLogger, opts ...Option) checkout.UseCase {
	uc := &checkoutUseCase{
		repo:    repo,
		tenants: tenants,
		logger:  log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *checkoutUseCase) Checkout(ctx context.Context, input *dto.CreateTransactionRequest) (*model.Transaction, error) {
	if err := input.Validate(); err != nil {
		metrics.CheckoutsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	t, err := uc.tenants.FindByID(ctx, input.TenantID)
	if err != nil {
		metrics.CheckoutsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load tenant: %w", err)
	}
	if t == nil {
		metrics.CheckoutsTotal.WithLabelValues("invalid").Inc()
		return nil, apperror.NotFound("tenant %s", input.TenantID)
	}

	// 1. Gate: no writes for an expired tenant
	now := uc.now()
	if !subscription.IsActive(t, now) {
		metrics.CheckoutsTotal.WithLabelValues("expired").Inc()
		return nil, fmt.Errorf("tenant %s: %w", t.ID, apperror.ErrSubscriptionExpired)
	}

	items := model.CartItems(input.Items)
	if sum := items.Sum(); !sum.Equal(input.Total) {
		// The client total is stored as sent; the mismatch is only reported.
		uc.logger.Warn("client total differs from item sum",
			zap.String("tenant_id", t.ID),
			zap.String("client_total", input.Total.String()),
			zap.String("item_sum", sum.String()),
		)
	}

	// 2-3. Record transaction and decrement stock atomically
	txn := &model.Transaction{
		ID:        uuid.NewString(),
		TenantID:  t.ID,
		Total:     input.Total,
		Items:     items,
		CreatedAt: now.UTC(),
	}
	if err := uc.repo.CreateWithStockDecrement(ctx, txn); err != nil {
		result := "error"
		if errors.Is(err, apperror.ErrNotFound) {
			result = "invalid"
		}
		metrics.CheckoutsTotal.WithLabelValues(result).Inc()
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	metrics.CheckoutsTotal.WithLabelValues("success").Inc()
	units := 0
	for _, it := range items {
		units += it.Quantity
	}
	metrics.CheckoutItemsTotal.Add(float64(units))

	uc.logger.Info("transaction recorded",
		zap.String("transaction_id", txn.ID),
		zap.String("tenant_id", txn.TenantID),
		zap.Int("lines", len(items)),
	)

	if uc.publisher != nil {
		uc.publishing.Add(1)
		go func() {
			defer uc.publishing.Done()
			uc.publishCreated(context.Background(), txn)
		}()
	}

	return txn, nil
}

func (uc *checkoutUseCase) publishCreated(ctx context.Context, txn *model.Transaction) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	event := dto.TransactionCreatedEvent{
		EventID:   uuid.NewString(),
		EventType: dto.EventTransactionCreated,
		Payload:   txn,
		Timestamp: txn.CreatedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		uc.logger.Error("failed to marshal transaction event", zap.Error(err))
		return
	}
	if err := uc.publisher.Publish(ctx, txn.TenantID, data); err != nil {
		uc.logger.Error("failed to publish transaction event",
			zap.String("transaction_id", txn.ID),
			zap.Error(err),
		)
	}
}

func (uc *checkoutUseCase) Wait() {
	uc.publishing.Wait()
}

func (uc *checkoutUseCase) ListTransactions(ctx context.Context, tenantID string) ([]model.Transaction, error) {
	if tenantID == "" {
		return nil, apperror.Validation("tenantId is required")
	}
	return uc.repo.FindByTenant(ctx, tenantID)
}

// TodayStats sums the tenant's transactions for the server-local calendar day.
func (uc *checkoutUseCase) TodayStats(ctx context.Context, tenantID string) (*dto.Stats, error) {
	if tenantID == "" {
		return nil, apperror.Validation("tenantId is required")
	}
	now := uc.now().Local()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return uc.repo.StatsBetween(ctx, tenantID, start, start.AddDate(0, 0, 1))
}
