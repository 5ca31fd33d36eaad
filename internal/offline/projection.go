package offline

import (
	"sync"

	"github.com/fekuna/omnipos-checkout-service/internal/checkout/dto"
	"github.com/fekuna/omnipos-checkout-service/internal/model"
)

// Snapshot is the terminal's local view of the tenant.
type Snapshot struct {
	Products     []model.Product     `json:"products"`
	Transactions []model.Transaction `json:"transactions"`
	Stats        dto.Stats           `json:"stats"`
	// Stale is set once local stock or stats diverge from the last refresh.
	Stale bool `json:"stale"`
}

type projection struct {
	mu   sync.RWMutex
	snap Snapshot
}

// record prepends txn and applies its lines to the cached stock and stats.
func (p *projection) record(txn *model.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.snap.Transactions = append([]model.Transaction{*txn}, p.snap.Transactions...)
	p.snap.Stats.Total = p.snap.Stats.Total.Add(txn.Total)
	p.snap.Stats.Count++

	for _, it := range txn.Items {
		for i := range p.snap.Products {
			if p.snap.Products[i].ID == it.ProductID {
				p.snap.Products[i].Stock -= it.Quantity
				break
			}
		}
	}
	if txn.IsOffline {
		p.snap.Stale = true
	}
}

// confirm swaps the optimistic entry tempID for the server's transaction.
func (p *projection) confirm(tempID string, txn *model.Transaction) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.snap.Transactions {
		if p.snap.Transactions[i].ID == tempID {
			p.snap.Transactions[i] = *txn
			return
		}
	}
	p.snap.Transactions = append([]model.Transaction{*txn}, p.snap.Transactions...)
}

func (p *projection) replace(products []model.Product, txns []model.Transaction, stats dto.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.snap = Snapshot{
		Products:     products,
		Transactions: txns,
		Stats:        stats,
	}
}

func (p *projection) snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := p.snap
	out.Products = append([]model.Product(nil), p.snap.Products...)
	out.Transactions = append([]model.Transaction(nil), p.snap.Transactions...)
	return out
}
