package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

// SubscriptionPayment is a renewal request awaiting admin review.
type SubscriptionPayment struct {
	BaseModel
	TenantID    string          `db:"tenant_id" json:"tenantId"`
	Plan        Plan            `db:"plan" json:"plan"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      PaymentStatus   `db:"status" json:"status"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processedAt,omitempty"`
}

// PendingPayment is an onboarding payment for a store that has no tenant yet.
type PendingPayment struct {
	BaseModel
	StoreName   string          `db:"store_name" json:"storeName"`
	Email       string          `db:"email" json:"email"`
	Plan        Plan            `db:"plan" json:"plan"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Status      PaymentStatus   `db:"status" json:"status"`
	ProcessedAt *time.Time      `db:"processed_at" json:"processedAt,omitempty"`
}
