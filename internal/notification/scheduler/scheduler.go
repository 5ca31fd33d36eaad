package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/metrics"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription"
)

const (
	MsgExpiresInWarning  = "Your subscription expires in 7 days. Renew now to avoid interruption."
	MsgExpiresInCritical = "Your subscription expires in 3 days. Renew immediately to keep checkout available."
	MsgExpired           = "Your subscription has expired. Checkout is locked until you renew."
)

func LowStockMessage(p *model.Product) string {
	return fmt.Sprintf("Low stock alert: %s has %d left (threshold %d).", p.Name, p.Stock, p.LowStockThreshold)
}

type TenantSource interface {
	FindAll(ctx context.Context) ([]model.Tenant, error)
}

type StockSource interface {
	FindLowStock(ctx context.Context) ([]model.Product, error)
}

type Notifier interface {
	Notify(ctx context.Context, tenantID *string, message string, typ model.NotificationType) (bool, error)
}

// Locker is a single-owner lease shared by every scheduler process.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

type Config struct {
	Spec     string
	LeaseKey string
	LeaseTTL time.Duration
}

// ScanReport counts one scan's outcome.
type ScanReport struct {
	Checked  int `json:"checked"`
	Inserted int `json:"inserted"`
	Failed   int `json:"failed"`
}

type Report struct {
	Subscriptions ScanReport `json:"subscriptions"`
	LowStock      ScanReport `json:"lowStock"`
	Skipped       bool       `json:"skipped"`
}

type Scheduler struct {
	cfg      Config
	tenants  TenantSource
	products StockSource
	notifier Notifier
	locker   Locker
	logger   logger.ZapLogger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

type Option func(*Scheduler)

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithLocker guards every run with a lease. Without it each process runs
// every scan and relies on the dedup key alone.
func WithLocker(l Locker) Option {
	return func(s *Scheduler) { s.locker = l }
}

func New(cfg Config, tenants TenantSource, products StockSource, notifier Notifier, log logger.ZapLogger, opts ...Option) *Scheduler {
	if cfg.Spec == "" {
		cfg.Spec = "@every 1h"
	}
	if cfg.LeaseKey == "" {
		cfg.LeaseKey = "omnipos:scheduler:lease"
	}
	if cfg.LeaseTTL <= 0 {
		cfg.LeaseTTL = 5 * time.Minute
	}
	s := &Scheduler{
		cfg:      cfg,
		tenants:  tenants,
		products: products,
		notifier: notifier,
		logger:   log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start runs one pass immediately and then on the configured schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("scheduler already started")
	}

	cl := cronLogger{log: s.logger}
	c := cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))
	if _, err := c.AddFunc(s.cfg.Spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", s.cfg.Spec, err)
	}

	s.logger.Info("Starting notification scheduler", zap.String("spec", s.cfg.Spec))
	s.RunOnce(ctx)

	c.Start()
	s.cron = c
	return nil
}

// Stop halts the schedule and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("Stopped notification scheduler")
}

// RunOnce performs both scans under the lease, if one is configured.
func (s *Scheduler) RunOnce(ctx context.Context) Report {
	start := time.Now()
	defer func() { metrics.SchedulerRunDuration.Observe(time.Since(start).Seconds()) }()

	if s.locker != nil {
		token := uuid.NewString()
		ok, err := s.locker.AcquireLock(ctx, s.cfg.LeaseKey, token, s.cfg.LeaseTTL)
		if err != nil {
			s.logger.Error("Failed to acquire scheduler lease", zap.Error(err))
			return Report{Skipped: true}
		}
		if !ok {
			s.logger.Debug("Scheduler lease held elsewhere, skipping run")
			return Report{Skipped: true}
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.Background(), s.cfg.LeaseKey, token); err != nil {
				s.logger.Warn("Failed to release scheduler lease", zap.Error(err))
			}
		}()
	}

	report := Report{
		Subscriptions: s.ScanSubscriptions(ctx),
		LowStock:      s.ScanLowStock(ctx),
	}
	s.logger.Info("Notification scan finished",
		zap.Int("subscriptions_checked", report.Subscriptions.Checked),
		zap.Int("subscriptions_inserted", report.Subscriptions.Inserted),
		zap.Int("subscriptions_failed", report.Subscriptions.Failed),
		zap.Int("low_stock_checked", report.LowStock.Checked),
		zap.Int("low_stock_inserted", report.LowStock.Inserted),
		zap.Int("low_stock_failed", report.LowStock.Failed),
	)
	return report
}

func (s *Scheduler) ScanSubscriptions(ctx context.Context) ScanReport {
	var r ScanReport
	tenants, err := s.tenants.FindAll(ctx)
	if err != nil {
		s.logger.Error("Failed to list tenants", zap.Error(err))
		r.Failed++
		metrics.ScanFailures.WithLabelValues("subscription").Inc()
		return r
	}

	now := s.now()
	for i := range tenants {
		t := &tenants[i]
		r.Checked++

		var (
			msg string
			typ model.NotificationType
		)
		switch subscription.Classify(subscription.DaysRemaining(t, now)) {
		case subscription.AlertWarning:
			msg, typ = MsgExpiresInWarning, model.NotificationWarning
		case subscription.AlertCritical:
			msg, typ = MsgExpiresInCritical, model.NotificationCritical
		case subscription.AlertExpired:
			msg, typ = MsgExpired, model.NotificationError
		default:
			continue
		}

		inserted, err := s.notify(ctx, t.ID, msg, typ)
		if err != nil {
			r.Failed++
			metrics.ScanFailures.WithLabelValues("subscription").Inc()
			s.logger.Error("Failed to notify tenant",
				zap.String("tenant_id", t.ID),
				zap.Error(err),
			)
			continue
		}
		if inserted {
			r.Inserted++
			metrics.NotificationsInserted.WithLabelValues("subscription").Inc()
		}
	}
	return r
}

func (s *Scheduler) ScanLowStock(ctx context.Context) ScanReport {
	var r ScanReport
	products, err := s.products.FindLowStock(ctx)
	if err != nil {
		s.logger.Error("Failed to list low stock products", zap.Error(err))
		r.Failed++
		metrics.ScanFailures.WithLabelValues("low_stock").Inc()
		return r
	}

	for i := range products {
		p := &products[i]
		r.Checked++

		inserted, err := s.notify(ctx, p.TenantID, LowStockMessage(p), model.NotificationWarning)
		if err != nil {
			r.Failed++
			metrics.ScanFailures.WithLabelValues("low_stock").Inc()
			s.logger.Error("Failed to notify low stock",
				zap.String("tenant_id", p.TenantID),
				zap.String("product_id", p.ID),
				zap.Error(err),
			)
			continue
		}
		if inserted {
			r.Inserted++
			metrics.NotificationsInserted.WithLabelValues("low_stock").Inc()
		}
	}
	return r
}

// notify isolates a single item: a panic is reported as that item's error.
func (s *Scheduler) notify(ctx context.Context, tenantID, msg string, typ model.NotificationType) (inserted bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("notify panicked: %v", rec)
		}
	}()
	return s.notifier.Notify(ctx, &tenantID, msg, typ)
}

// cronLogger adapts ZapLogger to cron.Logger.
type cronLogger struct {
	log logger.ZapLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug("cron: "+msg, fields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error("cron: "+msg, append(fields(keysAndValues), zap.Error(err))...)
}

func fields(kv []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		out = append(out, zap.Any(key, kv[i+1]))
	}
	return out
}
