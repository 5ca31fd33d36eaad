package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

type RenewRequest struct {
	TenantID string     `json:"tenantId"`
	Plan     model.Plan `json:"plan"`
}

func (r *RenewRequest) Validate() error {
	if r.TenantID == "" {
		return apperror.Validation("tenantId is required")
	}
	if r.Plan == "" {
		return apperror.Validation("plan is required")
	}
	return nil
}

type PayRequest struct {
	TenantID string          `json:"tenantId"`
	Plan     model.Plan      `json:"plan"`
	Amount   decimal.Decimal `json:"amount"`
}

func (r *PayRequest) Validate() error {
	if r.TenantID == "" {
		return apperror.Validation("tenantId is required")
	}
	if r.Plan == "" {
		return apperror.Validation("plan is required")
	}
	if !r.Amount.IsPositive() {
		return apperror.Validation("amount must be positive")
	}
	return nil
}

type PaymentDecisionRequest struct {
	PaymentID string `json:"paymentId"`
}

type StatusResponse struct {
	Active        bool       `json:"active"`
	DaysRemaining int        `json:"daysRemaining"`
	Locked        bool       `json:"locked"`
	ExpiryDate    time.Time  `json:"expiryDate"`
	Plan          model.Plan `json:"plan"`
}
