package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout"
	checkoutRepo "github.com/fekuna/omnipos-checkout-service/internal/checkout/repository"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	tenantRepo "github.com/fekuna/omnipos-checkout-service/internal/tenant/repository"
	"github.com/fekuna/omnipos-checkout-service/internal/testutil"
	"github.com/jmoiron/sqlx"
)

type publishedEvent struct {
	key   string
	value []byte
}

type chanPublisher chan publishedEvent

func (p chanPublisher) Publish(_ context.Context, key string, value []byte) error {
	p <- publishedEvent{key: key, value: value}
	return nil
}

func newUseCase(t *testing.T, db *sqlx.DB, now time.Time, opts ...Option) checkout.UseCase {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewCheckoutUseCase(
		checkoutRepo.NewPGRepository(db),
		tenantRepo.NewPGRepository(db),
		logger.NewNop(),
		opts...,
	)
}

func cart(p *model.Product, qty int) []model.CartItem {
	return []model.CartItem{{ProductID: p.ID, Name: p.Name, Price: p.Price, Quantity: qty}}
}

func TestCheckout_DecrementsStock(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	tenant := testutil.InsertTenant(t, db, now.Add(30*24*time.Hour))
	p := testutil.InsertProduct(t, db, tenant.ID, "Kopi Susu", "5.00", 10)

	uc := newUseCase(t, db, now)
	txn, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID,
		Total:    decimal.RequireFromString("10.00"),
		Items:    cart(p, 2),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, txn.ID)
	assert.True(t, txn.Total.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, 8, testutil.ProductStock(t, db, p.ID))
	assert.Equal(t, 1, testutil.CountRows(t, db, "transactions"))
}

func TestCheckout_ExpiredTenantWritesNothing(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	tenant := testutil.InsertTenant(t, db, now.Add(-24*time.Hour))
	p := testutil.InsertProduct(t, db, tenant.ID, "Teh", "3.00", 10)

	uc := newUseCase(t, db, now)
	_, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID,
		Total:    decimal.RequireFromString("3.00"),
		Items:    cart(p, 1),
	})

	require.ErrorIs(t, err, apperror.ErrSubscriptionExpired)
	assert.Equal(t, 10, testutil.ProductStock(t, db, p.ID))
	assert.Equal(t, 0, testutil.CountRows(t, db, "transactions"))
}

func TestCheckout_StockMayGoNegative(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	tenant := testutil.InsertTenant(t, db, now.Add(24*time.Hour))
	p := testutil.InsertProduct(t, db, tenant.ID, "Es Teh", "2.00", 1)

	uc := newUseCase(t, db, now)
	_, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID,
		Total:    decimal.RequireFromString("6.00"),
		Items:    cart(p, 3),
	})
	require.NoError(t, err)
	assert.Equal(t, -2, testutil.ProductStock(t, db, p.ID))
}

func TestCheckout_ForeignProductRollsBack(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	tenant := testutil.InsertTenant(t, db, now.Add(24*time.Hour))
	other := testutil.InsertTenant(t, db, now.Add(24*time.Hour))
	own := testutil.InsertProduct(t, db, tenant.ID, "Nasi", "10.00", 5)
	foreign := testutil.InsertProduct(t, db, other.ID, "Mie", "8.00", 5)

	items := append(cart(own, 1), cart(foreign, 1)...)
	uc := newUseCase(t, db, now)
	_, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID,
		Total:    decimal.RequireFromString("18.00"),
		Items:    items,
	})

	require.ErrorIs(t, err, apperror.ErrNotFound)
	assert.Equal(t, 5, testutil.ProductStock(t, db, own.ID), "first line must be rolled back")
	assert.Equal(t, 5, testutil.ProductStock(t, db, foreign.ID))
	assert.Equal(t, 0, testutil.CountRows(t, db, "transactions"))
}

func TestCheckout_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	uc := newUseCase(t, db, time.Now())

	cases := map[string]*dto.CreateTransactionRequest{
		"missing tenant": {Items: []model.CartItem{{ProductID: "p", Quantity: 1}}},
		"empty items":    {TenantID: "t"},
		"zero quantity":  {TenantID: "t", Items: []model.CartItem{{ProductID: "p", Quantity: 0}}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Checkout(context.Background(), req)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}

	_, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: "missing",
		Items:    []model.CartItem{{ProductID: "p", Quantity: 1}},
	})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCheckout_TrustsClientTotal(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	tenant := testutil.InsertTenant(t, db, now.Add(24*time.Hour))
	p := testutil.InsertProduct(t, db, tenant.ID, "Kopi", "5.00", 10)

	uc := newUseCase(t, db, now)
	txn, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID,
		Total:    decimal.RequireFromString("9.00"),
		Items:    cart(p, 2),
	})
	require.NoError(t, err)
	assert.True(t, txn.Total.Equal(decimal.RequireFromString("9.00")))
}

func TestCheckout_ItemsRoundTrip(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	tenant := testutil.InsertTenant(t, db, now.Add(24*time.Hour))
	a := testutil.InsertProduct(t, db, tenant.ID, "A", "1.50", 10)
	b := testutil.InsertProduct(t, db, tenant.ID, "B", "2.25", 10)
	items := append(cart(a, 3), cart(b, 1)...)

	uc := newUseCase(t, db, now)
	_, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID,
		Total:    model.CartItems(items).Sum(),
		Items:    items,
	})
	require.NoError(t, err)

	txns, err := uc.ListTransactions(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	require.Len(t, txns[0].Items, 2)
	for i := range items {
		assert.Equal(t, items[i].ProductID, txns[0].Items[i].ProductID)
		assert.Equal(t, items[i].Quantity, txns[0].Items[i].Quantity)
		assert.True(t, items[i].Price.Equal(txns[0].Items[i].Price))
	}
}

func TestListTransactions_NewestFirst(t *testing.T) {
	db := testutil.NewDB(t)
	clock := testutil.NewClock(time.Now().UTC())
	tenant := testutil.InsertTenant(t, db, clock.Now().Add(24*time.Hour))
	p := testutil.InsertProduct(t, db, tenant.ID, "Kopi", "5.00", 10)

	uc := NewCheckoutUseCase(checkoutRepo.NewPGRepository(db), tenantRepo.NewPGRepository(db), logger.NewNop(), WithClock(clock.Now))

	var ids []string
	for i := 0; i < 3; i++ {
		txn, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
			TenantID: tenant.ID, Total: p.Price, Items: cart(p, 1),
		})
		require.NoError(t, err)
		ids = append(ids, txn.ID)
		clock.Advance(time.Minute)
	}

	txns, err := uc.ListTransactions(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, ids[2], txns[0].ID)
	assert.Equal(t, ids[0], txns[2].ID)

	_, err = uc.ListTransactions(context.Background(), "")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestTodayStats(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now()
	tenant := testutil.InsertTenant(t, db, now.Add(48*time.Hour))
	p := testutil.InsertProduct(t, db, tenant.ID, "Kopi", "5.00", 10)

	uc := newUseCase(t, db, now)
	for _, qty := range []int{1, 2} {
		_, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
			TenantID: tenant.ID, Total: model.CartItems(cart(p, qty)).Sum(), Items: cart(p, qty),
		})
		require.NoError(t, err)
	}

	// A transaction from two days ago does not count.
	old := newUseCase(t, db, now.Add(-48*time.Hour))
	_, err := old.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID, Total: p.Price, Items: cart(p, 1),
	})
	require.NoError(t, err)

	stats, err := uc.TodayStats(context.Background(), tenant.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.True(t, stats.Total.Equal(decimal.RequireFromString("15.00")), stats.Total.String())
}

func TestCheckout_PublishesEvent(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	tenant := testutil.InsertTenant(t, db, now.Add(24*time.Hour))
	p := testutil.InsertProduct(t, db, tenant.ID, "Kopi", "5.00", 10)

	events := make(chanPublisher, 1)
	uc := newUseCase(t, db, now, WithPublisher(events))
	txn, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID, Total: p.Price, Items: cart(p, 1),
	})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, tenant.ID, ev.key)
		var decoded dto.TransactionCreatedEvent
		require.NoError(t, json.Unmarshal(ev.value, &decoded))
		assert.Equal(t, dto.EventTransactionCreated, decoded.EventType)
		assert.Equal(t, txn.ID, decoded.Payload.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no event published")
	}
}

// blockingPublisher holds every publish until released.
type blockingPublisher struct {
	release chan struct{}
	done    chan struct{}
}

func (p *blockingPublisher) Publish(ctx context.Context, _ string, _ []byte) error {
	<-p.release
	close(p.done)
	return nil
}

func TestWait_DrainsInFlightPublishes(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Now().UTC()
	tenant := testutil.InsertTenant(t, db, now.Add(24*time.Hour))
	p := testutil.InsertProduct(t, db, tenant.ID, "Kopi", "5.00", 10)

	pub := &blockingPublisher{release: make(chan struct{}), done: make(chan struct{})}
	uc := newUseCase(t, db, now, WithPublisher(pub))
	_, err := uc.Checkout(context.Background(), &dto.CreateTransactionRequest{
		TenantID: tenant.ID, Total: p.Price, Items: cart(p, 1),
	})
	require.NoError(t, err)

	waited := make(chan struct{})
	go func() {
		uc.Wait()
		close(waited)
	}()

	select {
	case <-waited:
		t.Fatal("Wait returned while a publish was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(pub.release)
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after the publish finished")
	}
	select {
	case <-pub.done:
	default:
		t.Fatal("publish had not completed when Wait returned")
	}
}
