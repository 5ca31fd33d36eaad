// Package testutil provides SQLite-backed ledger fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/database"
)

// NewDB opens a migrated SQLite ledger in the test's temp dir.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.Open(ctx, &database.Config{
		Driver: database.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "ledger.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))

	t.Cleanup(func() { db.Close() })
	return db
}

// InsertTenant stores a monthly tenant expiring at expiry.
func InsertTenant(t *testing.T, db *sqlx.DB, expiry time.Time) *model.Tenant {
	t.Helper()

	now := time.Now().UTC()
	tenant := &model.Tenant{
		BaseModel:  model.BaseModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		Name:       "Warung " + uuid.NewString()[:8],
		Email:      "owner@example.com",
		Plan:       model.PlanMonthly,
		ExpiryDate: expiry.UTC(),
		Status:     model.TenantStatusActive,
	}
	_, err := db.NamedExec(`
        INSERT INTO tenants (id, name, email, plan, expiry_date, status, created_at, updated_at)
        VALUES (:id, :name, :email, :plan, :expiry_date, :status, :created_at, :updated_at)`, tenant)
	require.NoError(t, err)
	return tenant
}

func InsertProduct(t *testing.T, db *sqlx.DB, tenantID, name string, price string, stock int) *model.Product {
	t.Helper()

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:         model.BaseModel{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now},
		TenantID:          tenantID,
		Name:              name,
		Price:             decimal.RequireFromString(price),
		Stock:             stock,
		LowStockThreshold: model.DefaultLowStockThreshold,
	}
	_, err := db.NamedExec(`
        INSERT INTO products (id, tenant_id, name, price, stock, low_stock_threshold, image_url, created_at, updated_at)
        VALUES (:id, :tenant_id, :name, :price, :stock, :low_stock_threshold, :image_url, :created_at, :updated_at)`, p)
	require.NoError(t, err)
	return p
}

func ProductStock(t *testing.T, db *sqlx.DB, productID string) int {
	t.Helper()

	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE id = ?`, productID))
	return stock
}

func CountRows(t *testing.T, db *sqlx.DB, table string) int {
	t.Helper()

	var n int
	require.NoError(t, db.Get(&n, `SELECT count(*) FROM `+table))
	return n
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
