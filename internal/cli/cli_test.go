package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-checkout-service/config"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
	"github.com/fekuna/omnipos-checkout-service/internal/offline"
)

// fakeServer records checkouts and answers the refresh endpoints.
type fakeServer struct {
	mu   sync.Mutex
	txns []model.Transaction
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/transactions":
		var req dto.CreateTransactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		txn := model.Transaction{ID: "srv-" + string(rune('a'+len(f.txns))), TenantID: req.TenantID, Total: req.Total, Items: req.Items}
		f.txns = append(f.txns, txn)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(txn)
	case r.URL.Path == "/api/transactions":
		json.NewEncoder(w).Encode(f.txns)
	case r.URL.Path == "/api/products":
		json.NewEncoder(w).Encode([]model.Product{{Name: "Kopi", Price: decimal.NewFromInt(18000), Stock: 3}})
	case r.URL.Path == "/api/stats":
		json.NewEncoder(w).Encode(dto.Stats{Total: decimal.Zero, Count: len(f.txns)})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(config.ClientConfig{HTTPTimeout: time.Second})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(config.ClientConfig{})
	for _, name := range []string{"checkout", "queue", "sync", "view"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestParseItem(t *testing.T) {
	item, err := ParseItem("p1:2:18000:Kopi Susu")
	require.NoError(t, err)
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, 2, item.Quantity)
	assert.True(t, item.Price.Equal(decimal.NewFromInt(18000)))
	assert.Equal(t, "Kopi Susu", item.Name)

	for _, bad := range []string{"p1", "p1:x:1", "p1:1:abc"} {
		_, err := ParseItem(bad)
		assert.Error(t, err, bad)
	}
}

func TestOfflineCheckoutThenSync(t *testing.T) {
	srv := &fakeServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	queue := filepath.Join(t.TempDir(), "queue.db")
	common := []string{"--tenant", "t1", "--queue", queue, "--server", ts.URL}

	out, err := run(t, append([]string{"checkout", "--offline", "--item", "p1:2:18000"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "queued offline")
	assert.Contains(t, out, offline.TempIDPrefix)

	out, err = run(t, append([]string{"queue", "--format", "json"}, common...)...)
	require.NoError(t, err)
	var entries []offline.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Request.Total.Equal(decimal.NewFromInt(36000)))

	out, err = run(t, append([]string{"sync"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 1 of 1, 0 failed, 0 remaining")
	require.Len(t, srv.txns, 1)

	out, err = run(t, append([]string{"queue"}, common...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Queue is empty.")
}

func TestCheckoutOnline(t *testing.T) {
	srv := &fakeServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	out, err := run(t, "checkout", "--item", "p1:1:18000", "--tenant", "t1",
		"--queue", filepath.Join(t.TempDir(), "queue.db"), "--server", ts.URL, "--format", "json")
	require.NoError(t, err)

	var txn model.Transaction
	require.NoError(t, json.Unmarshal([]byte(out), &txn))
	assert.Equal(t, "srv-a", txn.ID)
	assert.False(t, txn.IsOffline)
}

func TestUnreachableServerQueues(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	out, err := run(t, "checkout", "--item", "p1:1:5000", "--tenant", "t1",
		"--queue", filepath.Join(t.TempDir(), "queue.db"), "--server", url)
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "queued offline"), out)
}

func TestRequiresTenant(t *testing.T) {
	_, err := run(t, "queue", "--queue", filepath.Join(t.TempDir(), "queue.db"))
	assert.ErrorContains(t, err, "tenant is required")

	_, err = run(t, "queue", "--tenant", "t1", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}

func TestStartSurfacesLocalQueueFailure(t *testing.T) {
	ts := httptest.NewServer(&fakeServer{})
	defer ts.Close()

	ctx := context.Background()
	opts := &RootOptions{
		ServerURL: ts.URL,
		TenantID:  "t1",
		QueuePath: filepath.Join(t.TempDir(), "queue.db"),
		Timeout:   time.Second,
	}
	s, err := openSession(ctx, opts)
	require.NoError(t, err)

	// A broken queue is not an unreachable server.
	require.NoError(t, s.queue.Close())
	_, err = s.start(ctx, opts)
	require.Error(t, err)
	assert.True(t, s.terminal.Online())
}
