package notification

import (
	"context"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

type Repository interface {
	// Insert stores n unless a row with the same dedup key exists. It
	// reports whether a row was written.
	Insert(ctx context.Context, n *model.Notification) (bool, error)
	ListLatest(ctx context.Context, tenantID string, limit int) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, tenantID string) (int64, error)
}
