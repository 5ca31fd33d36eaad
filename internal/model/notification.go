package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type NotificationType string

const (
	NotificationInfo     NotificationType = "info"
	NotificationWarning  NotificationType = "warning"
	NotificationCritical NotificationType = "critical"
	NotificationError    NotificationType = "error"
	NotificationSuccess  NotificationType = "success"
)

// Notification belongs to a tenant, or to the super-admin when TenantID is nil.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	TenantID  *string          `db:"tenant_id" json:"tenantId"`
	Message   string           `db:"message" json:"message"`
	Type      NotificationType `db:"type" json:"type"`
	IsRead    bool             `db:"is_read" json:"isRead"`
	Day       string           `db:"day" json:"day"`
	DedupKey  string           `db:"dedup_key" json:"-"`
	CreatedAt time.Time        `db:"created_at" json:"createdAt"`
}

// DedupKey identifies a (tenant, message, calendar day) tuple.
func DedupKey(tenantID *string, message, day string) string {
	tenant := "*"
	if tenantID != nil {
		tenant = *tenantID
	}
	h := sha256.New()
	h.Write([]byte(tenant))
	h.Write([]byte{0})
	h.Write([]byte(message))
	h.Write([]byte{0})
	h.Write([]byte(day))
	return hex.EncodeToString(h.Sum(nil))
}
