package model

import "github.com/shopspring/decimal"

const DefaultLowStockThreshold = 5

type Product struct {
	BaseModel
	TenantID          string          `db:"tenant_id" json:"tenantId"`
	Name              string          `db:"name" json:"name"`
	Price             decimal.Decimal `db:"price" json:"price"`
	Stock             int             `db:"stock" json:"stock"` // may go negative when oversold
	LowStockThreshold int             `db:"low_stock_threshold" json:"lowStockThreshold"`
	ImageURL          string          `db:"image_url" json:"image"`
}

func (p *Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}
