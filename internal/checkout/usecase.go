package checkout

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

type UseCase interface {
	Checkout(ctx context.Context, input *dto.CreateTransactionRequest) (*model.Transaction, error)
	ListTransactions(ctx context.Context, tenantID string) ([]model.Transaction, error)
	TodayStats(ctx context.Context, tenantID string) (*dto.Stats, error)

	// Wait blocks until every in-flight TransactionCreated publish returns.
	Wait()
}
