package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

// CreateTransactionRequest is the checkout contract. Live terminals and the
// offline replayer send exactly this body.
type CreateTransactionRequest struct {
	TenantID string           `json:"tenantId"`
	Total    decimal.Decimal  `json:"total"`
	Items    []model.CartItem `json:"items"`
}

func (r *CreateTransactionRequest) Validate() error {
	if r.TenantID == "" {
		return apperror.Validation("tenantId is required")
	}
	if len(r.Items) == 0 {
		return apperror.Validation("items must not be empty")
	}
	for i, it := range r.Items {
		if it.ProductID == "" {
			return apperror.Validation("items[%d].id is required", i)
		}
		if it.Quantity < 1 {
			return apperror.Validation("items[%d].quantity must be at least 1", i)
		}
	}
	if r.Total.IsNegative() {
		return apperror.Validation("total must not be negative")
	}
	return nil
}

type Stats struct {
	Total decimal.Decimal `json:"total" db:"total"`
	Count int             `json:"count" db:"count"`
}

const EventTransactionCreated = "TransactionCreated"

type TransactionCreatedEvent struct {
	EventID   string             `json:"event_id"`
	EventType string             `json:"event_type"`
	Payload   *model.Transaction `json:"payload"`
	Timestamp time.Time          `json:"timestamp"`
}
