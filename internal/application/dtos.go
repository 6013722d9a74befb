package application

import (
	"time"

	"github.com/flashmart/order-service/internal/domain"
)

// PlaceOrderResult is returned on successful order creation
type PlaceOrderResult struct {
	OrderID          string `json:"orderId"`
	PaymentReference string `json:"paymentReference"`
	Status           string `json:"status"`
}

// PayOrderResult reports the order status after a pay attempt. Idempotent is
// true when the order was already paid with the same reference and nothing
// was mutated.
type PayOrderResult struct {
	OrderID    string `json:"orderId"`
	Status     string `json:"status"`
	Idempotent bool   `json:"idempotent"`
}

// OrderStatusResult reports the order status after cancel or ship
type OrderStatusResult struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// LedgerDTO is the read model for one SKU's stock
type LedgerDTO struct {
	SKU          string    `json:"sku"`
	ProductName  string    `json:"productName"`
	ActualQty    int       `json:"actualQty"`
	ReservedQty  int       `json:"reservedQty"`
	AvailableQty int       `json:"availableQty"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OrderItemDTO is one line of an order read model
type OrderItemDTO struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// OrderDTO is the order read model
type OrderDTO struct {
	OrderID          string         `json:"orderId"`
	UserID           string         `json:"userId"`
	Status           string         `json:"status"`
	PaymentReference string         `json:"paymentReference,omitempty"`
	Items            []OrderItemDTO `json:"items"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// ToLedgerDTO maps a ledger aggregate to its read model
func ToLedgerDTO(ledger *domain.InventoryLedger) *LedgerDTO {
	return &LedgerDTO{
		SKU:          ledger.SKU,
		ProductName:  ledger.ProductName,
		ActualQty:    ledger.ActualQty,
		ReservedQty:  ledger.ReservedQty,
		AvailableQty: ledger.AvailableQty(),
		UpdatedAt:    ledger.UpdatedAt,
	}
}

// ToOrderDTO maps an order aggregate to its read model
func ToOrderDTO(order *domain.Order) *OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{SKU: item.SKU, Qty: item.Qty})
	}

	return &OrderDTO{
		OrderID:          order.OrderID,
		UserID:           order.UserID,
		Status:           string(order.Status),
		PaymentReference: order.PaymentReference,
		Items:            items,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

// ToOrderDTOs maps a slice of orders
func ToOrderDTOs(orders []*domain.Order) []*OrderDTO {
	dtos := make([]*OrderDTO, 0, len(orders))
	for _, order := range orders {
		dtos = append(dtos, ToOrderDTO(order))
	}
	return dtos
}
