package notification

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

const LatestLimit = 20

type UseCase interface {
	// Notify inserts a message for tenantID (nil for the super-admin),
	// at most once per calendar day.
	Notify(ctx context.Context, tenantID *string, message string, typ model.NotificationType) (bool, error)
	ListLatest(ctx context.Context, tenantID string) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, tenantID string) (int64, error)
}
