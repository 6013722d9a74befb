package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent represents a domain event
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// BaseDomainEvent contains common event fields
type BaseDomainEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	AggregateId string    `json:"aggregateId"`
	Timestamp   time.Time `json:"timestamp"`
}

func (e BaseDomainEvent) EventType() string     { return e.Type }
func (e BaseDomainEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseDomainEvent) AggregateID() string   { return e.AggregateId }

func newBaseEvent(eventType, aggregateID string) BaseDomainEvent {
	return BaseDomainEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateId: aggregateID,
		Timestamp:   time.Now().UTC(),
	}
}

// StockReceivedEvent is raised when physical stock is added to a ledger
type StockReceivedEvent struct {
	BaseDomainEvent
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	ActualQty int    `json:"actualQty"`
}

// NewStockReceivedEvent creates a new StockReceivedEvent
func NewStockReceivedEvent(ledger *InventoryLedger, qty int) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: newBaseEvent("flashmart.stock.received", ledger.SKU),
		SKU:             ledger.SKU,
		Quantity:        qty,
		ActualQty:       ledger.ActualQty,
	}
}

// StockReservedEvent is raised when stock is held for an order
type StockReservedEvent struct {
	BaseDomainEvent
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	ReservedQty int    `json:"reservedQty"`
}

// NewStockReservedEvent creates a new StockReservedEvent
func NewStockReservedEvent(ledger *InventoryLedger, qty int) *StockReservedEvent {
	return &StockReservedEvent{
		BaseDomainEvent: newBaseEvent("flashmart.stock.reserved", ledger.SKU),
		SKU:             ledger.SKU,
		Quantity:        qty,
		ReservedQty:     ledger.ReservedQty,
	}
}

// StockCommittedEvent is raised when reserved stock is consumed at payment
type StockCommittedEvent struct {
	BaseDomainEvent
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	ActualQty int    `json:"actualQty"`
}

// NewStockCommittedEvent creates a new StockCommittedEvent
func NewStockCommittedEvent(ledger *InventoryLedger, qty int) *StockCommittedEvent {
	return &StockCommittedEvent{
		BaseDomainEvent: newBaseEvent("flashmart.stock.committed", ledger.SKU),
		SKU:             ledger.SKU,
		Quantity:        qty,
		ActualQty:       ledger.ActualQty,
	}
}

// StockReleasedEvent is raised when a reservation is returned to available
type StockReleasedEvent struct {
	BaseDomainEvent
	SKU         string `json:"sku"`
	Quantity    int    `json:"quantity"`
	ReservedQty int    `json:"reservedQty"`
}

// NewStockReleasedEvent creates a new StockReleasedEvent
func NewStockReleasedEvent(ledger *InventoryLedger, qty int) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent: newBaseEvent("flashmart.stock.released", ledger.SKU),
		SKU:             ledger.SKU,
		Quantity:        qty,
		ReservedQty:     ledger.ReservedQty,
	}
}

// OrderPlacedEvent is raised when a new order is created
type OrderPlacedEvent struct {
	BaseDomainEvent
	OrderID string      `json:"orderId"`
	UserID  string      `json:"userId"`
	Items   []OrderItem `json:"items"`
}

// NewOrderPlacedEvent creates a new OrderPlacedEvent
func NewOrderPlacedEvent(order *Order) *OrderPlacedEvent {
	return &OrderPlacedEvent{
		BaseDomainEvent: newBaseEvent("flashmart.order.placed", order.OrderID),
		OrderID:         order.OrderID,
		UserID:          order.UserID,
		Items:           order.Items,
	}
}

// OrderPaidEvent is raised when an order transitions to paid
type OrderPaidEvent struct {
	BaseDomainEvent
	OrderID          string `json:"orderId"`
	UserID           string `json:"userId"`
	PaymentReference string `json:"paymentReference"`
}

// NewOrderPaidEvent creates a new OrderPaidEvent
func NewOrderPaidEvent(order *Order) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseDomainEvent:  newBaseEvent("flashmart.order.paid", order.OrderID),
		OrderID:          order.OrderID,
		UserID:           order.UserID,
		PaymentReference: order.PaymentReference,
	}
}

// OrderShippedEvent is raised when an order is shipped
type OrderShippedEvent struct {
	BaseDomainEvent
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

// NewOrderShippedEvent creates a new OrderShippedEvent
func NewOrderShippedEvent(order *Order) *OrderShippedEvent {
	return &OrderShippedEvent{
		BaseDomainEvent: newBaseEvent("flashmart.order.shipped", order.OrderID),
		OrderID:         order.OrderID,
		UserID:          order.UserID,
	}
}

// OrderCancelledEvent is raised when an order is cancelled
type OrderCancelledEvent struct {
	BaseDomainEvent
	OrderID string `json:"orderId"`
	UserID  string `json:"userId"`
}

// NewOrderCancelledEvent creates a new OrderCancelledEvent
func NewOrderCancelledEvent(order *Order) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseDomainEvent: newBaseEvent("flashmart.order.cancelled", order.OrderID),
		OrderID:         order.OrderID,
		UserID:          order.UserID,
	}
}
