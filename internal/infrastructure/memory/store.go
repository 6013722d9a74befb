// Package memory provides an in-memory implementation of the persistence
// contracts with the same optimistic version semantics as the MongoDB
// repositories. Tests run against it so the conflict-retry path they
// exercise is the one production code takes.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/flashmart/order-service/internal/domain"
)

// Store holds ledgers and orders behind compare-and-swap saves keyed on the
// aggregate version.
type Store struct {
	mu      sync.RWMutex
	ledgers map[string]domain.InventoryLedger
	orders  map[string]domain.Order

	// BeforeLedgerSave, when set, runs before each ledger save attempt
	// outside the store lock. Tests use it to interleave writers
	// deterministically.
	BeforeLedgerSave func(sku string)
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		ledgers: make(map[string]domain.InventoryLedger),
		orders:  make(map[string]domain.Order),
	}
}

// Ledgers returns the ledger repository view of the store
func (s *Store) Ledgers() domain.LedgerRepository {
	return &ledgerRepo{store: s}
}

// Orders returns the order repository view of the store
func (s *Store) Orders() domain.OrderRepository {
	return &orderRepo{store: s}
}

func copyLedger(ledger domain.InventoryLedger) domain.InventoryLedger {
	cp := ledger
	cp.ClearDomainEvents()
	return cp
}

func copyOrder(order domain.Order) domain.Order {
	cp := order
	cp.Items = append([]domain.OrderItem(nil), order.Items...)
	cp.ClearDomainEvents()
	return cp
}

type ledgerRepo struct {
	store *Store
}

func (r *ledgerRepo) Insert(ctx context.Context, ledger *domain.InventoryLedger) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.ledgers[ledger.SKU]; exists {
		return domain.ErrVersionConflict
	}
	r.store.ledgers[ledger.SKU] = copyLedger(*ledger)
	return nil
}

// Save accepts the write only if no other writer bumped the row's version
// since it was loaded.
func (r *ledgerRepo) Save(ctx context.Context, ledger *domain.InventoryLedger) error {
	if hook := r.store.BeforeLedgerSave; hook != nil {
		hook(ledger.SKU)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, exists := r.store.ledgers[ledger.SKU]
	if !exists || current.Version != ledger.Version {
		return domain.ErrVersionConflict
	}

	ledger.Version++
	r.store.ledgers[ledger.SKU] = copyLedger(*ledger)
	return nil
}

func (r *ledgerRepo) FindBySKU(ctx context.Context, sku string) (*domain.InventoryLedger, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	ledger, exists := r.store.ledgers[sku]
	if !exists {
		return nil, nil
	}
	cp := copyLedger(ledger)
	return &cp, nil
}

type orderRepo struct {
	store *Store
}

func (r *orderRepo) Insert(ctx context.Context, order *domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.orders[order.OrderID]; exists {
		return domain.ErrVersionConflict
	}
	r.store.orders[order.OrderID] = copyOrder(*order)
	return nil
}

func (r *orderRepo) Save(ctx context.Context, order *domain.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	current, exists := r.store.orders[order.OrderID]
	if !exists || current.Version != order.Version {
		return domain.ErrVersionConflict
	}

	order.Version++
	r.store.orders[order.OrderID] = copyOrder(*order)
	return nil
}

func (r *orderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	order, exists := r.store.orders[orderID]
	if !exists {
		return nil, nil
	}
	cp := copyOrder(order)
	return &cp, nil
}

func (r *orderRepo) FindByUserID(ctx context.Context, userID string, pagination domain.Pagination) ([]*domain.Order, error) {
	return r.findWhere(func(o domain.Order) bool { return o.UserID == userID }, pagination)
}

func (r *orderRepo) FindByStatus(ctx context.Context, status domain.Status, pagination domain.Pagination) ([]*domain.Order, error) {
	return r.findWhere(func(o domain.Order) bool { return o.Status == status }, pagination)
}

func (r *orderRepo) CountByUserID(ctx context.Context, userID string) (int64, error) {
	return r.countWhere(func(o domain.Order) bool { return o.UserID == userID })
}

func (r *orderRepo) CountByStatus(ctx context.Context, status domain.Status) (int64, error) {
	return r.countWhere(func(o domain.Order) bool { return o.Status == status })
}

func (r *orderRepo) countWhere(match func(domain.Order) bool) (int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var count int64
	for _, order := range r.store.orders {
		if match(order) {
			count++
		}
	}
	return count, nil
}

func (r *orderRepo) findWhere(match func(domain.Order) bool, pagination domain.Pagination) ([]*domain.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]domain.Order, 0)
	for _, order := range r.store.orders {
		if match(order) {
			matched = append(matched, order)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := pagination.Skip()
	if start > int64(len(matched)) {
		start = int64(len(matched))
	}
	end := start + pagination.Limit()
	if end > int64(len(matched)) {
		end = int64(len(matched))
	}

	page := make([]*domain.Order, 0, end-start)
	for _, order := range matched[start:end] {
		cp := copyOrder(order)
		page = append(page, &cp)
	}
	return page, nil
}
