// Package client is the terminal's HTTP client for the checkout service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/auth"
	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

type APIClient struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string, timeout time.Duration) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) CreateTransaction(ctx context.Context, req *dto.CreateTransactionRequest) (*model.Transaction, error) {
	var txn model.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", req.TenantID, req, &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (c *APIClient) ListProducts(ctx context.Context, tenantID string) ([]model.Product, error) {
	var products []model.Product
	err := c.do(ctx, http.MethodGet, "/api/products", tenantID, nil, &products)
	return products, err
}

func (c *APIClient) ListTransactions(ctx context.Context, tenantID string) ([]model.Transaction, error) {
	var txns []model.Transaction
	err := c.do(ctx, http.MethodGet, "/api/transactions", tenantID, nil, &txns)
	return txns, err
}

func (c *APIClient) TodayStats(ctx context.Context, tenantID string) (*dto.Stats, error) {
	var stats dto.Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", tenantID, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// do sends one request. Failures to reach the server, and gateway errors in
// front of it, are reported as apperror.ErrTransient. Any other non-2xx is an
// *apperror.StatusError.
func (c *APIClient) do(ctx context.Context, method, path, tenantID string, body, out any) error {
	u := c.baseURL + path
	if method == http.MethodGet {
		u += "?" + url.Values{"tenantId": {tenantID}}.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(auth.TenantHeader, tenantID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", apperror.ErrTransient, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: server responded %d", apperror.ErrTransient, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e apperror.Response
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if err := json.Unmarshal(data, &e); err != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &apperror.StatusError{Code: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
