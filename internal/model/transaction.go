package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CartItem is a product snapshot taken at checkout time.
type CartItem struct {
	ProductID string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartItems is stored as a JSON text column; order is preserved.
type CartItems []CartItem

func (items CartItems) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (items CartItems) Value() (driver.Value, error) {
	if items == nil {
		items = CartItems{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (items *CartItems) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*items = CartItems{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cart items: unsupported source type %T", src)
	}
	return json.Unmarshal(data, items)
}

// Transaction is immutable once created. Total is the client-computed amount.
type Transaction struct {
	ID        string          `db:"id" json:"id"`
	TenantID  string          `db:"tenant_id" json:"tenantId"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Items     CartItems       `db:"items" json:"items"`
	CreatedAt time.Time       `db:"created_at" json:"createdAt"`
	// IsOffline marks an optimistic projection not yet confirmed by the server.
	IsOffline bool `db:"-" json:"isOffline,omitempty"`
}
