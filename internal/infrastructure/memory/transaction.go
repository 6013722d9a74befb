package memory

import (
	"context"
	"sync"

	"github.com/flashmart/order-service/internal/domain"
)

// TransactionRunner gives the Store unit-of-work semantics: the whole store
// is snapshotted before fn runs and restored if fn fails, so partial writes
// are never observable afterwards. Transactions serialize against each other.
type TransactionRunner struct {
	store *Store
	txMu  sync.Mutex
}

// NewTransactionRunner creates a TransactionRunner over store
func NewTransactionRunner(store *Store) *TransactionRunner {
	return &TransactionRunner{store: store}
}

// Execute runs fn atomically against the store
func (t *TransactionRunner) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()

	ledgers, orders := t.snapshot()

	if err := fn(ctx); err != nil {
		t.restore(ledgers, orders)
		return err
	}
	return nil
}

func (t *TransactionRunner) snapshot() (map[string]domain.InventoryLedger, map[string]domain.Order) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	ledgers := make(map[string]domain.InventoryLedger, len(t.store.ledgers))
	for sku, ledger := range t.store.ledgers {
		ledgers[sku] = copyLedger(ledger)
	}
	orders := make(map[string]domain.Order, len(t.store.orders))
	for id, order := range t.store.orders {
		orders[id] = copyOrder(order)
	}
	return ledgers, orders
}

func (t *TransactionRunner) restore(ledgers map[string]domain.InventoryLedger, orders map[string]domain.Order) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	t.store.ledgers = ledgers
	t.store.orders = orders
}

// PassthroughTransactionRunner runs the unit of work without atomicity.
// Concurrency tests use it so optimistic conflicts between interleaved
// writers stay visible instead of being serialized away.
type PassthroughTransactionRunner struct{}

// Execute runs fn directly
func (PassthroughTransactionRunner) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
