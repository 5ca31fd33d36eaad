// Package offline keeps a terminal usable while the checkout service is
// unreachable: checkouts are buffered in a local queue, shown optimistically,
// and replayed in order once the terminal is back online.
package offline

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

// TempIDPrefix marks transaction ids that were never confirmed by the server.
const TempIDPrefix = "offline-"

// Entry is one buffered checkout request. It has no server identity until it
// is replayed successfully and removed.
type Entry struct {
	Seq        int64
	TenantID   string
	TempID     string
	Request    *dto.CreateTransactionRequest
	EnqueuedAt time.Time
	Attempts   int
	LastError  string
}

// Queue is a durable, per-tenant FIFO of buffered checkouts.
type Queue interface {
	Enqueue(ctx context.Context, e *Entry) error
	List(ctx context.Context, tenantID string) ([]Entry, error)
	Remove(ctx context.Context, seq int64) error
	MarkFailed(ctx context.Context, seq int64, reason string) error
	Len(ctx context.Context, tenantID string) (int, error)
}

// API is the subset of the checkout service a terminal talks to.
type API interface {
	CreateTransaction(ctx context.Context, req *dto.CreateTransactionRequest) (*model.Transaction, error)
	ListProducts(ctx context.Context, tenantID string) ([]model.Product, error)
	ListTransactions(ctx context.Context, tenantID string) ([]model.Transaction, error)
	TodayStats(ctx context.Context, tenantID string) (*dto.Stats, error)
}
