package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	checkoutH "github.com/fekuna/omnipos-checkout-service/internal/checkout/handler"
	checkoutRepo "github.com/fekuna/omnipos-checkout-service/internal/checkout/repository"
	checkoutUC "github.com/fekuna/omnipos-checkout-service/internal/checkout/usecase"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	notificationH "github.com/fekuna/omnipos-checkout-service/internal/notification/handler"
	notificationRepo "github.com/fekuna/omnipos-checkout-service/internal/notification/repository"
	notificationUC "github.com/fekuna/omnipos-checkout-service/internal/notification/usecase"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
	productH "github.com/fekuna/omnipos-checkout-service/internal/product/handler"
	productRepo "github.com/fekuna/omnipos-checkout-service/internal/product/repository"
	productUC "github.com/fekuna/omnipos-checkout-service/internal/product/usecase"
	subscriptionH "github.com/fekuna/omnipos-checkout-service/internal/subscription/handler"
	subscriptionRepo "github.com/fekuna/omnipos-checkout-service/internal/subscription/repository"
	subscriptionUC "github.com/fekuna/omnipos-checkout-service/internal/subscription/usecase"
	tenantRepo "github.com/fekuna/omnipos-checkout-service/internal/tenant/repository"
	"github.com/fekuna/omnipos-checkout-service/internal/testutil"
)

func newTestServer(t *testing.T) (*Server, *sqlx.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	log := logger.NewNop()

	tenants := tenantRepo.NewPGRepository(db)
	notifUC := notificationUC.NewNotificationUseCase(notificationRepo.NewPGRepository(db), log)

	srv := NewServer(Handlers{
		Checkout:     checkoutH.NewCheckoutHandler(checkoutUC.NewCheckoutUseCase(checkoutRepo.NewPGRepository(db), tenants, log), log),
		Product:      productH.NewProductHandler(productUC.NewProductUseCase(productRepo.NewPGRepository(db), log), log),
		Notification: notificationH.NewNotificationHandler(notifUC, log),
		Subscription: subscriptionH.NewSubscriptionHandler(
			subscriptionUC.NewSubscriptionUseCase(subscriptionRepo.NewPGRepository(db), tenants, notifUC, log), log),
	}, log)
	return srv, db
}

func do(t *testing.T, srv *Server, method, path, body string, headers ...string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestCreateTransaction(t *testing.T) {
	srv, db := newTestServer(t)
	active := testutil.InsertTenant(t, db, time.Now().Add(24*time.Hour))
	p := testutil.InsertProduct(t, db, active.ID, "Kopi", "5.00", 10)

	body := `{"tenantId":"` + active.ID + `","total":10.00,"items":[{"id":"` + p.ID + `","name":"Kopi","price":5.00,"quantity":2}]}`
	rec, out := do(t, srv, http.MethodPost, "/api/transactions", body)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotEmpty(t, out["id"])
	assert.Equal(t, active.ID, out["tenantId"])
	assert.EqualValues(t, 10, out["total"])
	assert.Len(t, out["items"], 1)
	assert.Equal(t, 8, testutil.ProductStock(t, db, p.ID))

	rec, out = do(t, srv, http.MethodGet, "/api/stats?tenantId="+active.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["count"])
	assert.EqualValues(t, 10, out["total"])
}

func TestCreateTransaction_Errors(t *testing.T) {
	srv, db := newTestServer(t)
	expired := testutil.InsertTenant(t, db, time.Now().Add(-24*time.Hour))
	p := testutil.InsertProduct(t, db, expired.ID, "Teh", "3.00", 10)

	rec, out := do(t, srv, http.MethodPost, "/api/transactions", `{"items":[{"id":"x","quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], "tenantId")

	body := `{"tenantId":"` + expired.ID + `","total":3,"items":[{"id":"` + p.ID + `","quantity":1}]}`
	rec, out = do(t, srv, http.MethodPost, "/api/transactions", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, out["error"], "subscription expired")
	assert.Equal(t, 10, testutil.ProductStock(t, db, p.ID))

	rec, _ = do(t, srv, http.MethodPost, "/api/transactions", `{"tenantId":"ghost","total":1,"items":[{"id":"x","quantity":1}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, srv, http.MethodPost, "/api/transactions", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantFromHeader(t *testing.T) {
	srv, db := newTestServer(t)
	tenant := testutil.InsertTenant(t, db, time.Now().Add(24*time.Hour))
	testutil.InsertProduct(t, db, tenant.ID, "Kopi", "5.00", 10)

	rec, _ := do(t, srv, http.MethodGet, "/api/products", "", "X-Tenant-Id", tenant.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var products []model.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Kopi", products[0].Name)

	rec, out := do(t, srv, http.MethodGet, "/api/transactions", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, out["error"])
}

func TestSubscriptionRoutes(t *testing.T) {
	srv, db := newTestServer(t)
	tenant := testutil.InsertTenant(t, db, time.Now().Add(-time.Hour))

	rec, out := do(t, srv, http.MethodGet, "/api/subscription/status?tenantId="+tenant.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["locked"])
	assert.Equal(t, false, out["active"])

	rec, out = do(t, srv, http.MethodPost, "/api/subscription/pay", `{"tenantId":"`+tenant.ID+`","plan":"monthly","amount":50000}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	paymentID := out["id"].(string)

	rec, _ = do(t, srv, http.MethodPost, "/api/admin/subscriptions/approve", `{"paymentId":"`+paymentID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = do(t, srv, http.MethodPost, "/api/admin/subscriptions/approve", `{"paymentId":"`+paymentID+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, out["error"], apperror.ErrAlreadyProcessed.Error())

	rec, _ = do(t, srv, http.MethodPost, "/api/admin/subscriptions/reject", `{"paymentId":"`+uuid.NewString()+`"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, out = do(t, srv, http.MethodGet, "/api/subscription/status?tenantId="+tenant.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, out["active"])
	assert.EqualValues(t, 30, out["daysRemaining"])

	rec, _ = do(t, srv, http.MethodPost, "/api/renew", `{"tenantId":"`+tenant.ID+`","plan":"weekly"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationRoutes(t *testing.T) {
	srv, db := newTestServer(t)
	tenant := testutil.InsertTenant(t, db, time.Now().Add(24*time.Hour))

	rec, _ := do(t, srv, http.MethodPost, "/api/renew", `{"tenantId":"`+tenant.ID+`","plan":"monthly"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, srv, http.MethodGet, "/api/notifications?tenantId="+tenant.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var items []model.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, model.NotificationSuccess, items[0].Type)
	assert.False(t, items[0].IsRead)

	rec, out := do(t, srv, http.MethodPost, "/api/notifications/read", `{"tenantId":"`+tenant.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, out["updated"])

	rec, _ = do(t, srv, http.MethodGet, "/api/notifications", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthMetricsAndUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	rec, out := do(t, srv, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", out["status"])

	do(t, srv, http.MethodGet, "/api/stats", "")
	rec, _ = do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "omnipos_http_request_duration_seconds")

	rec, out = do(t, srv, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, out["error"])
}

func TestShutdown(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, srv.Shutdown(ctx))
}
