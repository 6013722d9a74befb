package domain

import (
	"context"
	"errors"
)

// ErrVersionConflict is returned by version-checked saves when another writer
// changed the row since it was loaded. It is absorbed by the reservation retry
// loop and must never reach a caller.
var ErrVersionConflict = errors.New("optimistic version conflict")

// LedgerRepository defines the interface for inventory ledger persistence.
// FindBySKU returns (nil, nil) when the SKU has no ledger.
type LedgerRepository interface {
	// Insert creates the ledger row; fails if the SKU already has one.
	Insert(ctx context.Context, ledger *InventoryLedger) error

	// Save persists the ledger only if its Version still matches the stored
	// row, bumping the version on success; returns ErrVersionConflict
	// otherwise.
	Save(ctx context.Context, ledger *InventoryLedger) error

	FindBySKU(ctx context.Context, sku string) (*InventoryLedger, error)
}

// OrderRepository defines the interface for order persistence.
// FindByID returns (nil, nil) when the order does not exist.
type OrderRepository interface {
	// Insert creates the order row with its items.
	Insert(ctx context.Context, order *Order) error

	// Save persists the order under the same optimistic version check as
	// LedgerRepository.Save.
	Save(ctx context.Context, order *Order) error

	FindByID(ctx context.Context, orderID string) (*Order, error)
	FindByUserID(ctx context.Context, userID string, pagination Pagination) ([]*Order, error)
	FindByStatus(ctx context.Context, status Status, pagination Pagination) ([]*Order, error)
	CountByUserID(ctx context.Context, userID string) (int64, error)
	CountByStatus(ctx context.Context, status Status) (int64, error)
}

// TransactionRunner executes a unit of work atomically: every persistence call
// made through the ctx it passes to fn commits or rolls back together.
// Implementations retry the whole unit of work on transient infrastructure
// faults; that retry is distinct from the per-ledger optimistic-conflict retry.
type TransactionRunner interface {
	Execute(ctx context.Context, fn func(ctx context.Context) error) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
	PublishAll(ctx context.Context, events []DomainEvent) error
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// DefaultPagination returns default pagination options
func DefaultPagination() Pagination {
	return Pagination{
		Page:     1,
		PageSize: 20,
	}
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	return (p.Page - 1) * p.PageSize
}

// Limit returns the maximum number of documents to return
func (p Pagination) Limit() int64 {
	return p.PageSize
}
