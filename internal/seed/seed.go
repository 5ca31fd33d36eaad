// Package seed loads demo data for local development.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-checkout-service/internal/product"
	"github.com/fekuna/omnipos-checkout-service/internal/subscription"
	"github.com/fekuna/omnipos-checkout-service/internal/tenant"
)

const (
	DemoTenantID  = "00000000-0000-0000-0000-000000000001"
	DemoPaymentID = "00000000-0000-0000-0000-0000000000a1"
)

var demoProducts = []struct {
	id    string
	name  string
	price string
	stock int
}{
	{"00000000-0000-0000-0000-000000000101", "Kopi Susu", "18000", 40},
	{"00000000-0000-0000-0000-000000000102", "Teh Manis", "8000", 60},
	{"00000000-0000-0000-0000-000000000103", "Roti Bakar", "15000", 4},
	{"00000000-0000-0000-0000-000000000104", "Nasi Goreng", "25000", 12},
}

type Seeder struct {
	tenants       tenant.Repository
	products      product.Repository
	subscriptions subscription.Repository
	logger        logger.ZapLogger
}

func NewSeeder(tenants tenant.Repository, products product.Repository, subscriptions subscription.Repository, log logger.ZapLogger) *Seeder {
	return &Seeder{
		tenants:       tenants,
		products:      products,
		subscriptions: subscriptions,
		logger:        log,
	}
}

// Run inserts the demo store once. A second call is a no-op.
func (s *Seeder) Run(ctx context.Context, now time.Time) error {
	existing, err := s.tenants.FindByID(ctx, DemoTenantID)
	if err != nil {
		return err
	}
	if existing != nil {
		s.logger.Debug("Demo data already present")
		return nil
	}

	now = now.UTC()
	base := func(id string) model.BaseModel {
		return model.BaseModel{ID: id, CreatedAt: now, UpdatedAt: now}
	}

	t := &model.Tenant{
		BaseModel:  base(DemoTenantID),
		Name:       "Warung Demo",
		Email:      "demo@omnipos.local",
		Plan:       model.PlanMonthly,
		ExpiryDate: now.AddDate(0, 0, 7),
		Status:     model.TenantStatusActive,
	}
	if err := s.tenants.Create(ctx, t); err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}

	for _, p := range demoProducts {
		err := s.products.Create(ctx, &model.Product{
			BaseModel:         base(p.id),
			TenantID:          t.ID,
			Name:              p.name,
			Price:             decimal.RequireFromString(p.price),
			Stock:             p.stock,
			LowStockThreshold: model.DefaultLowStockThreshold,
		})
		if err != nil {
			return fmt.Errorf("seed product %s: %w", p.name, err)
		}
	}

	err = s.subscriptions.CreatePendingPayment(ctx, &model.PendingPayment{
		BaseModel: base(DemoPaymentID),
		StoreName: "Toko Baru",
		Email:     "owner@tokobaru.local",
		Plan:      model.PlanQuarterly,
		Amount:    decimal.NewFromInt(150000),
		Status:    model.PaymentPending,
	})
	if err != nil {
		return fmt.Errorf("seed pending payment: %w", err)
	}

	s.logger.Info("Seeded demo data",
		zap.String("tenant_id", t.ID),
		zap.Int("products", len(demoProducts)),
	)
	return nil
}
