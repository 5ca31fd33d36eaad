package subscription

import (
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

const day = 24 * time.Hour

// Alert levels reported by Classify.
type Alert int

const (
	AlertNone Alert = iota
	AlertWarning
	AlertCritical
	AlertExpired
)

const (
	WarningDays  = 7
	CriticalDays = 3
)

// IsActive reports whether checkout is permitted for t at now.
func IsActive(t *model.Tenant, now time.Time) bool {
	return t.ExpiryDate.After(now)
}

// DaysRemaining is ceil((expiry - now) / 24h). It is zero or negative once
// the tenant has expired.
func DaysRemaining(t *model.Tenant, now time.Time) int {
	d := t.ExpiryDate.Sub(now)
	days := d / day
	if d%day > 0 {
		days++
	}
	return int(days)
}

func Classify(daysRemaining int) Alert {
	switch {
	case daysRemaining <= 0:
		return AlertExpired
	case daysRemaining == CriticalDays:
		return AlertCritical
	case daysRemaining == WarningDays:
		return AlertWarning
	default:
		return AlertNone
	}
}

func PlanDuration(plan model.Plan) (time.Duration, error) {
	switch plan {
	case model.PlanMonthly:
		return 30 * day, nil
	case model.PlanQuarterly:
		return 90 * day, nil
	case model.PlanAnnual:
		return 365 * day, nil
	default:
		return 0, apperror.Validation("unknown plan %q", plan)
	}
}

// ExtendExpiry adds the plan duration to whichever is later, the current
// expiry or now, so renewing early never loses paid days and renewing late
// never back-dates.
func ExtendExpiry(current, now time.Time, plan model.Plan) (time.Time, error) {
	d, err := PlanDuration(plan)
	if err != nil {
		return time.Time{}, err
	}
	base := current
	if now.After(base) {
		base = now
	}
	return base.Add(d).UTC(), nil
}
