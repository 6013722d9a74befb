package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flashmart/order-service/internal/domain"
	apperrors "github.com/flashmart/order-service/pkg/errors"
	"github.com/flashmart/order-service/pkg/logging"
	"github.com/flashmart/order-service/pkg/metrics"
)

// Reservation retry budget. Conflicts beyond the budget fail the request.
const (
	reserveMaxAttempts = 3
	reserveBaseBackoff = 20 * time.Millisecond
)

// NewPaymentReference generates the external payment identifier assigned to
// an order at creation.
func NewPaymentReference() string {
	return "PAY-" + uuid.New().String()
}

// ReservationCoordinator places orders: it reserves stock for every SKU in
// the request and persists the order, all in one unit of work. A failure on
// any SKU rolls back the reservations already applied for the request.
type ReservationCoordinator struct {
	ledgers   domain.LedgerRepository
	orders    domain.OrderRepository
	txn       domain.TransactionRunner
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewReservationCoordinator creates a ReservationCoordinator
func NewReservationCoordinator(
	ledgers domain.LedgerRepository,
	orders domain.OrderRepository,
	txn domain.TransactionRunner,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *ReservationCoordinator {
	return &ReservationCoordinator{
		ledgers:   ledgers,
		orders:    orders,
		txn:       txn,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent("reservation-coordinator"),
	}
}

type skuGroup struct {
	sku string
	qty int
}

// PlaceOrder reserves stock for every line of cmd and creates the order.
// Duplicate SKUs are merged for reservation; the order entity re-merges them
// itself from the original lines.
func (c *ReservationCoordinator) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (*PlaceOrderResult, error) {
	if err := validatePlaceOrder(cmd); err != nil {
		return nil, err
	}

	groups := groupBySKU(cmd.Items)

	var (
		order   *domain.Order
		pending []domain.DomainEvent
	)

	err := c.txn.Execute(ctx, func(txCtx context.Context) error {
		// The unit of work may re-execute after a transient fault, so
		// state from a previous attempt is discarded here.
		pending = pending[:0]
		order = nil

		for _, group := range groups {
			ledger, err := c.reserveWithRetry(txCtx, group.sku, group.qty)
			if err != nil {
				return err
			}
			pending = append(pending, ledger.DomainEvents()...)
		}

		o, err := domain.NewOrder(domain.NewOrderID(), cmd.UserID, toDomainItems(cmd.Items))
		if err != nil {
			return apperrors.ErrValidation(err.Error())
		}
		if err := o.InitPayment(NewPaymentReference()); err != nil {
			return fmt.Errorf("failed to assign payment reference: %w", err)
		}

		if err := c.orders.Insert(txCtx, o); err != nil {
			return fmt.Errorf("failed to persist order: %w", err)
		}

		pending = append(pending, o.DomainEvents()...)
		order = o
		return nil
	})
	if err != nil {
		c.logger.WithContext(ctx).Warn("Order placement failed",
			"userId", cmd.UserID, "error", err)
		return nil, err
	}

	c.metrics.OrdersPlaced.Inc()
	c.publishEvents(ctx, pending)

	c.logger.WithContext(ctx).Info("Order placed",
		"orderId", order.OrderID, "userId", cmd.UserID, "lines", len(order.Items))

	return &PlaceOrderResult{
		OrderID:          order.OrderID,
		PaymentReference: order.PaymentReference,
		Status:           string(order.Status),
	}, nil
}

// reserveWithRetry reserves qty of one SKU under the optimistic retry cycle.
// Insufficient stock is a business failure and is never retried.
func (c *ReservationCoordinator) reserveWithRetry(ctx context.Context, sku string, qty int) (*domain.InventoryLedger, error) {
	return mutateLedgerWithRetry(ctx, c.ledgers, c.metrics, sku, func(ledger *domain.InventoryLedger) error {
		if err := ledger.Reserve(qty); err != nil {
			if errors.Is(err, domain.ErrInsufficientStock) {
				c.metrics.OutOfStock.WithLabelValues(sku).Inc()
				return apperrors.ErrInsufficientStock(sku)
			}
			return apperrors.ErrValidation(err.Error())
		}
		return nil
	})
}

func (c *ReservationCoordinator) publishEvents(ctx context.Context, events []domain.DomainEvent) {
	if c.publisher == nil || len(events) == 0 {
		return
	}
	if err := c.publisher.PublishAll(ctx, events); err != nil {
		// Event delivery is best effort; the order is already committed.
		c.logger.WithContext(ctx).Warn("Failed to publish domain events",
			"count", len(events), "error", err)
	}
}

func validatePlaceOrder(cmd PlaceOrderCommand) error {
	if cmd.UserID == "" {
		return apperrors.ErrValidation("userId is required")
	}
	if len(cmd.Items) == 0 {
		return apperrors.ErrValidation("order must have at least one item")
	}
	for _, line := range cmd.Items {
		if line.SKU == "" {
			return apperrors.ErrValidation("sku is required for every item")
		}
		if line.Qty <= 0 {
			return apperrors.ErrValidation(
				fmt.Sprintf("quantity for %s must be positive", line.SKU))
		}
	}
	return nil
}

// groupBySKU merges duplicate SKUs, preserving first-occurrence order so
// reservations take a stable path across retries.
func groupBySKU(items []OrderLine) []skuGroup {
	index := make(map[string]int, len(items))
	groups := make([]skuGroup, 0, len(items))

	for _, line := range items {
		if i, ok := index[line.SKU]; ok {
			groups[i].qty += line.Qty
			continue
		}
		index[line.SKU] = len(groups)
		groups = append(groups, skuGroup{sku: line.SKU, qty: line.Qty})
	}
	return groups
}

func toDomainItems(items []OrderLine) []domain.OrderItem {
	domainItems := make([]domain.OrderItem, 0, len(items))
	for _, line := range items {
		domainItems = append(domainItems, domain.OrderItem{SKU: line.SKU, Qty: line.Qty})
	}
	return domainItems
}
