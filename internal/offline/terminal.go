package offline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
)

var ErrReplayInProgress = errors.New("replay already in progress")

// ReplayReport summarises one pass over the queue.
type ReplayReport struct {
	Attempted int  `json:"attempted"`
	Replayed  int  `json:"replayed"`
	Failed    int  `json:"failed"`
	Remaining int  `json:"remaining"`
	Refreshed bool `json:"refreshed"`
}

// Terminal is one tenant's point-of-sale client.
type Terminal struct {
	tenantID string
	api      API
	queue    Queue
	logger   logger.ZapLogger
	now      func() time.Time

	cache     projection
	online    atomic.Bool
	replaying atomic.Bool
}

type Option func(*Terminal)

func WithClock(now func() time.Time) Option {
	return func(t *Terminal) { t.now = now }
}

func NewTerminal(tenantID string, api API, queue Queue, log logger.ZapLogger, opts ...Option) *Terminal {
	t := &Terminal{
		tenantID: tenantID,
		api:      api,
		queue:    queue,
		logger:   log.With(zap.String("tenant_id", tenantID)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Terminal) Online() bool {
	return t.online.Load()
}

// Start sets the initial connectivity. Online with a non-empty queue
// replays; online with an empty queue refreshes the local view.
func (t *Terminal) Start(ctx context.Context, online bool) (*ReplayReport, error) {
	t.online.Store(online)
	if !online {
		return nil, nil
	}

	pending, err := t.queue.Len(ctx, t.tenantID)
	if err != nil {
		return nil, err
	}
	if pending > 0 {
		return t.Replay(ctx)
	}
	return nil, t.Refresh(ctx)
}

// SetOnline records a connectivity change. Going from offline to online
// runs one replay pass.
func (t *Terminal) SetOnline(ctx context.Context, online bool) (*ReplayReport, error) {
	was := t.online.Swap(online)
	if !online || was {
		return nil, nil
	}
	t.logger.Info("Terminal back online, replaying queue")
	return t.Replay(ctx)
}

// Checkout submits req live when online. Transient failures, and every
// checkout made while offline, are buffered and answered with an optimistic
// transaction. Other rejections are returned as is. A non-empty queue is
// replayed before a live checkout.
func (t *Terminal) Checkout(ctx context.Context, req *dto.CreateTransactionRequest) (*model.Transaction, error) {
	switch req.TenantID {
	case "":
		req.TenantID = t.tenantID
	case t.tenantID:
	default:
		return nil, apperror.Validation("tenantId %s does not match terminal tenant %s", req.TenantID, t.tenantID)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if t.online.Load() {
		drained, err := t.replayPending(ctx)
		if err != nil {
			return nil, err
		}
		if !drained {
			return t.buffer(ctx, req)
		}

		txn, err := t.api.CreateTransaction(ctx, req)
		if err == nil {
			t.cache.record(txn)
			return txn, nil
		}
		if !errors.Is(err, apperror.ErrTransient) {
			return nil, err
		}
		t.logger.Warn("Checkout unreachable, switching to offline", zap.Error(err))
		t.online.Store(false)
	}

	return t.buffer(ctx, req)
}

// replayPending runs a pass over a non-empty queue before a live checkout.
// It reports false when the checkout has to queue behind a pass that could
// not run.
func (t *Terminal) replayPending(ctx context.Context) (bool, error) {
	pending, err := t.queue.Len(ctx, t.tenantID)
	if err != nil {
		return false, fmt.Errorf("check queue: %w", err)
	}
	if pending == 0 {
		return true, nil
	}

	_, err = t.Replay(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrReplayInProgress):
		return false, nil
	default:
		t.logger.Warn("Replay before checkout failed, buffering", zap.Error(err))
		return false, nil
	}
}

func (t *Terminal) buffer(ctx context.Context, req *dto.CreateTransactionRequest) (*model.Transaction, error) {
	now := t.now().UTC()
	entry := &Entry{
		TenantID:   req.TenantID,
		TempID:     TempIDPrefix + uuid.NewString(),
		Request:    req,
		EnqueuedAt: now,
	}
	if err := t.queue.Enqueue(ctx, entry); err != nil {
		return nil, fmt.Errorf("buffer checkout: %w", err)
	}

	txn := &model.Transaction{
		ID:        entry.TempID,
		TenantID:  req.TenantID,
		Total:     req.Total,
		Items:     model.CartItems(req.Items),
		CreatedAt: now,
		IsOffline: true,
	}
	t.cache.record(txn)

	t.logger.Info("Checkout buffered",
		zap.String("temp_id", entry.TempID),
		zap.Int64("seq", entry.Seq),
	)
	return txn, nil
}

// Replay submits every buffered entry in enqueue order. An entry is removed
// only when the server confirms it; failures are recorded on the entry and
// the pass moves on. A full drain refreshes the local view.
func (t *Terminal) Replay(ctx context.Context) (*ReplayReport, error) {
	if !t.replaying.CompareAndSwap(false, true) {
		return nil, ErrReplayInProgress
	}
	defer t.replaying.Store(false)

	entries, err := t.queue.List(ctx, t.tenantID)
	if err != nil {
		return nil, fmt.Errorf("list queue: %w", err)
	}

	report := &ReplayReport{}
	for i := range entries {
		e := &entries[i]
		report.Attempted++

		txn, err := t.api.CreateTransaction(ctx, e.Request)
		if err != nil {
			report.Failed++
			t.logger.Warn("Replay failed",
				zap.Int64("seq", e.Seq),
				zap.String("temp_id", e.TempID),
				zap.Int("attempts", e.Attempts+1),
				zap.Error(err),
			)
			if mErr := t.queue.MarkFailed(ctx, e.Seq, err.Error()); mErr != nil {
				t.logger.Error("Failed to record replay failure", zap.Int64("seq", e.Seq), zap.Error(mErr))
			}
			continue
		}

		if err := t.queue.Remove(ctx, e.Seq); err != nil {
			// The server has the transaction; leaving the entry would replay it twice.
			return report, fmt.Errorf("remove replayed entry %d: %w", e.Seq, err)
		}
		t.cache.confirm(e.TempID, txn)
		report.Replayed++
	}

	report.Remaining, err = t.queue.Len(ctx, t.tenantID)
	if err != nil {
		return report, err
	}

	t.logger.Info("Replay finished",
		zap.Int("replayed", report.Replayed),
		zap.Int("failed", report.Failed),
		zap.Int("remaining", report.Remaining),
	)

	if report.Remaining == 0 {
		if err := t.Refresh(ctx); err != nil {
			return report, err
		}
		report.Refreshed = true
	}
	return report, nil
}

// Refresh replaces the local view with the server's products, transactions
// and today's stats.
func (t *Terminal) Refresh(ctx context.Context) error {
	products, err := t.api.ListProducts(ctx, t.tenantID)
	if err != nil {
		return fmt.Errorf("refresh products: %w", err)
	}
	txns, err := t.api.ListTransactions(ctx, t.tenantID)
	if err != nil {
		return fmt.Errorf("refresh transactions: %w", err)
	}
	stats, err := t.api.TodayStats(ctx, t.tenantID)
	if err != nil {
		return fmt.Errorf("refresh stats: %w", err)
	}

	t.cache.replace(products, txns, *stats)
	return nil
}

func (t *Terminal) View() Snapshot {
	return t.cache.snapshot()
}

func (t *Terminal) Pending(ctx context.Context) ([]Entry, error) {
	return t.queue.List(ctx, t.tenantID)
}
