package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/flashmart/order-service/internal/domain"
	apperrors "github.com/flashmart/order-service/pkg/errors"
	"github.com/flashmart/order-service/pkg/logging"
	"github.com/flashmart/order-service/pkg/metrics"
)

// OrderLifecycleService drives orders through payment, cancellation and
// shipment. Payment and cancellation touch the inventory ledgers and run as
// one unit of work; shipment only changes order status.
type OrderLifecycleService struct {
	ledgers   domain.LedgerRepository
	orders    domain.OrderRepository
	txn       domain.TransactionRunner
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewOrderLifecycleService creates an OrderLifecycleService
func NewOrderLifecycleService(
	ledgers domain.LedgerRepository,
	orders domain.OrderRepository,
	txn domain.TransactionRunner,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *OrderLifecycleService {
	return &OrderLifecycleService{
		ledgers:   ledgers,
		orders:    orders,
		txn:       txn,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent("order-lifecycle"),
	}
}

// Pay commits the reserved stock of every order line and marks the order
// paid. Paying an already-paid order with the same reference is a no-op
// reported as idempotent; any other reference mismatch is a conflict.
func (s *OrderLifecycleService) Pay(ctx context.Context, cmd PayOrderCommand) (*PayOrderResult, error) {
	if cmd.OrderID == "" {
		return nil, apperrors.ErrValidation("orderId is required")
	}
	if cmd.PaymentReference == "" {
		return nil, apperrors.ErrValidation("paymentReference is required")
	}

	var (
		result  *PayOrderResult
		pending []domain.DomainEvent
	)

	err := s.txn.Execute(ctx, func(txCtx context.Context) error {
		pending = pending[:0]
		result = nil

		order, err := s.loadOrder(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}

		if order.Status == domain.StatusPaid {
			if order.PaymentReference == cmd.PaymentReference {
				result = &PayOrderResult{
					OrderID:    order.OrderID,
					Status:     string(order.Status),
					Idempotent: true,
				}
				return nil
			}
			return apperrors.ErrConflict(
				fmt.Sprintf("order %s already paid with a different reference", order.OrderID))
		}

		if order.Status != domain.StatusPlaced {
			return apperrors.ErrConflict(
				fmt.Sprintf("cannot pay order in status %s", order.Status))
		}
		if order.PaymentReference != cmd.PaymentReference {
			return apperrors.ErrConflict(
				fmt.Sprintf("invalid payment reference for order %s", order.OrderID))
		}

		for _, item := range order.Items {
			ledger, err := s.commitWithRetry(txCtx, item.SKU, item.Qty)
			if err != nil {
				return err
			}
			pending = append(pending, ledger.DomainEvents()...)
		}

		if err := order.MarkPaid(); err != nil {
			return apperrors.ErrConflict(err.Error())
		}
		if err := s.orders.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
		}

		pending = append(pending, order.DomainEvents()...)
		result = &PayOrderResult{OrderID: order.OrderID, Status: string(order.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !result.Idempotent {
		s.metrics.OrdersPaid.Inc()
		s.publishEvents(ctx, pending)
		s.logger.WithContext(ctx).Info("Order paid", "orderId", result.OrderID)
	}
	return result, nil
}

// Cancel releases the reserved stock of every order line and cancels the
// order. The entity rejects cancellation of paid, shipped or already
// cancelled orders.
func (s *OrderLifecycleService) Cancel(ctx context.Context, cmd CancelOrderCommand) (*OrderStatusResult, error) {
	if cmd.OrderID == "" {
		return nil, apperrors.ErrValidation("orderId is required")
	}

	var (
		result  *OrderStatusResult
		pending []domain.DomainEvent
	)

	err := s.txn.Execute(ctx, func(txCtx context.Context) error {
		pending = pending[:0]
		result = nil

		order, err := s.loadOrder(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}

		// Check the transition before touching any ledger, so an illegal
		// cancel never mutates stock even transiently.
		if err := order.Cancel(); err != nil {
			return apperrors.ErrConflict(
				fmt.Sprintf("cannot cancel order in status %s", order.Status))
		}

		for _, item := range order.Items {
			ledger, err := s.releaseWithRetry(txCtx, item.SKU, item.Qty)
			if err != nil {
				return err
			}
			pending = append(pending, ledger.DomainEvents()...)
		}

		if err := s.orders.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
		}

		pending = append(pending, order.DomainEvents()...)
		result = &OrderStatusResult{OrderID: order.OrderID, Status: string(order.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrdersCancelled.Inc()
	s.publishEvents(ctx, pending)
	s.logger.WithContext(ctx).Info("Order cancelled", "orderId", result.OrderID)
	return result, nil
}

// Ship marks a paid order shipped. No ledger mutation: the stock was
// consumed at payment time.
func (s *OrderLifecycleService) Ship(ctx context.Context, cmd ShipOrderCommand) (*OrderStatusResult, error) {
	if cmd.OrderID == "" {
		return nil, apperrors.ErrValidation("orderId is required")
	}

	var (
		result  *OrderStatusResult
		pending []domain.DomainEvent
	)

	err := s.txn.Execute(ctx, func(txCtx context.Context) error {
		pending = pending[:0]
		result = nil

		order, err := s.loadOrder(txCtx, cmd.OrderID)
		if err != nil {
			return err
		}

		if err := order.MarkShipped(); err != nil {
			return apperrors.ErrConflict("only paid orders can be shipped")
		}
		if err := s.orders.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order %s: %w", order.OrderID, err)
		}

		pending = append(pending, order.DomainEvents()...)
		result = &OrderStatusResult{OrderID: order.OrderID, Status: string(order.Status)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.OrdersShipped.Inc()
	s.publishEvents(ctx, pending)
	s.logger.WithContext(ctx).Info("Order shipped", "orderId", result.OrderID)
	return result, nil
}

func (s *OrderLifecycleService) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFoundWithID("order", orderID)
	}
	return order, nil
}

func (s *OrderLifecycleService) commitWithRetry(ctx context.Context, sku string, qty int) (*domain.InventoryLedger, error) {
	return mutateLedgerWithRetry(ctx, s.ledgers, s.metrics, sku, func(ledger *domain.InventoryLedger) error {
		if err := ledger.Commit(qty); err != nil {
			if errors.Is(err, domain.ErrInvalidCommit) {
				return apperrors.ErrConflict(
					fmt.Sprintf("commit for %s exceeds its reserved quantity", sku))
			}
			return apperrors.ErrValidation(err.Error())
		}
		return nil
	})
}

func (s *OrderLifecycleService) releaseWithRetry(ctx context.Context, sku string, qty int) (*domain.InventoryLedger, error) {
	return mutateLedgerWithRetry(ctx, s.ledgers, s.metrics, sku, func(ledger *domain.InventoryLedger) error {
		if err := ledger.Release(qty); err != nil {
			if errors.Is(err, domain.ErrInvalidRelease) {
				return apperrors.ErrConflict(
					fmt.Sprintf("release for %s exceeds its reserved quantity", sku))
			}
			return apperrors.ErrValidation(err.Error())
		}
		return nil
	})
}

func (s *OrderLifecycleService) publishEvents(ctx context.Context, events []domain.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.PublishAll(ctx, events); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to publish domain events",
			"count", len(events), "error", err)
	}
}
