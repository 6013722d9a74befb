package application

// OrderLine is one requested (sku, qty) pair. Duplicate SKUs are legal and
// are merged during reservation and order construction.
type OrderLine struct {
	SKU string
	Qty int
}

// PlaceOrderCommand creates an order, reserving stock for every line
type PlaceOrderCommand struct {
	UserID string
	Items  []OrderLine
}

// PayOrderCommand commits reserved stock and marks the order paid
type PayOrderCommand struct {
	OrderID          string
	PaymentReference string
}

// CancelOrderCommand releases reserved stock and cancels the order
type CancelOrderCommand struct {
	OrderID string
}

// ShipOrderCommand marks a paid order shipped
type ShipOrderCommand struct {
	OrderID string
}

// CreateLedgerCommand creates the stock record for a SKU
type CreateLedgerCommand struct {
	SKU         string
	ProductName string
	InitialQty  int
}

// ReceiveStockCommand adds physical stock to an existing ledger
type ReceiveStockCommand struct {
	SKU string
	Qty int
}
