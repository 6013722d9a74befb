package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for the Order aggregate
var (
	ErrNoItems             = errors.New("order must have at least one item")
	ErrEmptyUserID         = errors.New("user id is required")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPaymentRefSet       = errors.New("payment reference already set")
	ErrPaymentRefMismatch  = errors.New("payment reference mismatch")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

// Status represents the order lifecycle state
type Status string

const (
	StatusPlaced    Status = "placed"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a known lifecycle state
func (s Status) IsValid() bool {
	switch s {
	case StatusPlaced, StatusPaid, StatusShipped, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are possible.
func (s Status) IsTerminal() bool {
	return s == StatusShipped || s == StatusCancelled
}

// Order is the aggregate root for a customer purchase. Legal transitions:
// placed -> paid -> shipped, placed -> cancelled. The cancellation rule is
// owned here, not in the services: a paid order cannot be cancelled because
// its stock has already been committed.
type Order struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OrderID string             `bson:"orderId" json:"orderId"`
	UserID  string             `bson:"userId" json:"userId"`
	Status  Status             `bson:"status" json:"status"`

	// PaymentReference is empty until InitPayment and set exactly once.
	PaymentReference string `bson:"paymentReference,omitempty" json:"paymentReference,omitempty"`

	Items   []OrderItem `bson:"items" json:"items"`
	Version int64       `bson:"version" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`

	domainEvents []DomainEvent `bson:"-" json:"-"`
}

// OrderItem is one line of an order. One line per SKU; duplicate SKUs are
// merged at construction.
type OrderItem struct {
	OrderID string `bson:"orderId" json:"orderId"`
	SKU     string `bson:"sku" json:"sku"`
	Qty     int    `bson:"qty" json:"qty"`
}

// NewOrderID generates a globally unique order identifier.
func NewOrderID() string {
	return "ORD-" + uuid.New().String()
}

// NewOrder creates an Order in placed status. Items with the same SKU are
// merged into a single line by summing quantities.
func NewOrder(orderID, userID string, items []OrderItem) (*Order, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}

	merged := make([]OrderItem, 0, len(items))
	bySKU := make(map[string]int, len(items))
	for _, item := range items {
		if item.SKU == "" {
			return nil, ErrEmptySKU
		}
		if item.Qty <= 0 {
			return nil, ErrInvalidQuantity
		}
		if idx, ok := bySKU[item.SKU]; ok {
			merged[idx].Qty += item.Qty
			continue
		}
		bySKU[item.SKU] = len(merged)
		merged = append(merged, OrderItem{OrderID: orderID, SKU: item.SKU, Qty: item.Qty})
	}

	now := time.Now().UTC()
	order := &Order{
		OrderID:      orderID,
		UserID:       userID,
		Status:       StatusPlaced,
		Items:        merged,
		Version:      0,
		CreatedAt:    now,
		UpdatedAt:    now,
		domainEvents: make([]DomainEvent, 0),
	}

	order.addDomainEvent(NewOrderPlacedEvent(order))
	return order, nil
}

// InitPayment records the external payment reference. It may be called once;
// a second call is a conflict regardless of the reference value.
func (o *Order) InitPayment(externalRef string) error {
	if o.PaymentReference != "" {
		return ErrPaymentRefSet
	}

	o.PaymentReference = externalRef
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkPaid transitions the order from placed to paid.
func (o *Order) MarkPaid() error {
	if o.Status != StatusPlaced {
		return ErrInvalidTransition
	}

	o.Status = StatusPaid
	o.UpdatedAt = time.Now().UTC()
	o.addDomainEvent(NewOrderPaidEvent(o))
	return nil
}

// MarkShipped transitions the order from paid to shipped.
func (o *Order) MarkShipped() error {
	if o.Status != StatusPaid {
		return ErrInvalidTransition
	}

	o.Status = StatusShipped
	o.UpdatedAt = time.Now().UTC()
	o.addDomainEvent(NewOrderShippedEvent(o))
	return nil
}

// Cancel transitions the order to cancelled. Legal only from placed: paid
// orders have committed their stock and shipped orders have left the building.
func (o *Order) Cancel() error {
	if o.Status != StatusPlaced {
		return ErrOrderNotCancellable
	}

	o.Status = StatusCancelled
	o.UpdatedAt = time.Now().UTC()
	o.addDomainEvent(NewOrderCancelledEvent(o))
	return nil
}

// TotalQty returns the total unit count across all lines.
func (o *Order) TotalQty() int {
	total := 0
	for _, item := range o.Items {
		total += item.Qty
	}
	return total
}

// DomainEvents returns all pending domain events.
func (o *Order) DomainEvents() []DomainEvent {
	return o.domainEvents
}

// ClearDomainEvents clears all pending domain events.
func (o *Order) ClearDomainEvents() {
	o.domainEvents = make([]DomainEvent, 0)
}

func (o *Order) addDomainEvent(event DomainEvent) {
	o.domainEvents = append(o.domainEvents, event)
}
