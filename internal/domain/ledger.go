package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for the InventoryLedger aggregate
var (
	ErrEmptySKU          = errors.New("SKU is required")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidCommit     = errors.New("commit exceeds reserved quantity")
	ErrInvalidRelease    = errors.New("release exceeds reserved quantity")
)

// InventoryLedger is the aggregate root for per-SKU stock accounting.
// ActualQty is the physical stock on hand, ReservedQty the portion held
// against placed-but-unpaid orders. The invariant 0 <= ReservedQty <= ActualQty
// holds after every operation.
//
// Version is the optimistic concurrency token. The aggregate never touches it;
// the repository bumps it on save and rejects writes whose loaded version no
// longer matches the stored one.
type InventoryLedger struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	SKU         string             `bson:"sku"`
	ProductName string             `bson:"productName"`

	ActualQty   int   `bson:"actualQty"`
	ReservedQty int   `bson:"reservedQty"`
	Version     int64 `bson:"version"`

	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`

	domainEvents []DomainEvent `bson:"-"`
}

// NewInventoryLedger creates a ledger for a SKU with its initial stock.
func NewInventoryLedger(sku, productName string, initialQty int) (*InventoryLedger, error) {
	if sku == "" {
		return nil, ErrEmptySKU
	}
	if initialQty < 0 {
		return nil, ErrInvalidQuantity
	}

	now := time.Now().UTC()
	return &InventoryLedger{
		SKU:          sku,
		ProductName:  productName,
		ActualQty:    initialQty,
		ReservedQty:  0,
		Version:      0,
		CreatedAt:    now,
		UpdatedAt:    now,
		domainEvents: make([]DomainEvent, 0),
	}, nil
}

// AvailableQty returns stock not held by any reservation.
func (l *InventoryLedger) AvailableQty() int {
	return l.ActualQty - l.ReservedQty
}

// Receive adds physical stock.
func (l *InventoryLedger) Receive(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}

	l.ActualQty += qty
	l.UpdatedAt = time.Now().UTC()

	l.addDomainEvent(NewStockReceivedEvent(l, qty))
	return nil
}

// Reserve holds qty units against an order that has not been paid yet.
// Fails with ErrInsufficientStock when availability cannot cover qty; the
// caller must not retry in that case, the answer will not change.
func (l *InventoryLedger) Reserve(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if l.AvailableQty() < qty {
		return ErrInsufficientStock
	}

	l.ReservedQty += qty
	l.UpdatedAt = time.Now().UTC()

	l.addDomainEvent(NewStockReservedEvent(l, qty))
	return nil
}

// Commit consumes qty units of reserved stock at payment time. Both the
// reservation and the physical stock shrink together.
func (l *InventoryLedger) Commit(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if l.ReservedQty < qty {
		return ErrInvalidCommit
	}

	l.ReservedQty -= qty
	l.ActualQty -= qty
	l.UpdatedAt = time.Now().UTC()

	l.addDomainEvent(NewStockCommittedEvent(l, qty))
	return nil
}

// Release returns qty reserved units to available stock without consuming them.
func (l *InventoryLedger) Release(qty int) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if l.ReservedQty < qty {
		return ErrInvalidRelease
	}

	l.ReservedQty -= qty
	l.UpdatedAt = time.Now().UTC()

	l.addDomainEvent(NewStockReleasedEvent(l, qty))
	return nil
}

// DomainEvents returns all pending domain events.
func (l *InventoryLedger) DomainEvents() []DomainEvent {
	return l.domainEvents
}

// ClearDomainEvents clears all pending domain events.
func (l *InventoryLedger) ClearDomainEvents() {
	l.domainEvents = make([]DomainEvent, 0)
}

func (l *InventoryLedger) addDomainEvent(event DomainEvent) {
	l.domainEvents = append(l.domainEvents, event)
}
