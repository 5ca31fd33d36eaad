package model

import "time"

type Plan string

const (
	PlanMonthly   Plan = "monthly"
	PlanQuarterly Plan = "quarterly"
	PlanAnnual    Plan = "annual"
)

const TenantStatusActive = "active"

// Tenant is one store sharing the backend. ExpiryDate is always set; the plan
// only decides how far a renewal moves it.
type Tenant struct {
	BaseModel
	Name       string    `db:"name" json:"name"`
	Email      string    `db:"email" json:"email"`
	Plan       Plan      `db:"plan" json:"plan"`
	ExpiryDate time.Time `db:"expiry_date" json:"expiryDate"`
	Status     string    `db:"status" json:"status"`
}
