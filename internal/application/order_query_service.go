package application

import (
	"context"
	"fmt"

	"github.com/flashmart/order-service/internal/domain"
	apperrors "github.com/flashmart/order-service/pkg/errors"
	"github.com/flashmart/order-service/pkg/logging"
)

// OrderQueryService answers read-only order lookups
type OrderQueryService struct {
	orders domain.OrderRepository
	logger *logging.Logger
}

// NewOrderQueryService creates an OrderQueryService
func NewOrderQueryService(orders domain.OrderRepository, logger *logging.Logger) *OrderQueryService {
	return &OrderQueryService{
		orders: orders,
		logger: logger.WithComponent("order-query"),
	}
}

// GetOrder loads one order with its items
func (s *OrderQueryService) GetOrder(ctx context.Context, orderID string) (*OrderDTO, error) {
	if orderID == "" {
		return nil, apperrors.ErrValidation("orderId is required")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order %s: %w", orderID, err)
	}
	if order == nil {
		return nil, apperrors.ErrNotFoundWithID("order", orderID)
	}
	return ToOrderDTO(order), nil
}

// ListOrders lists orders by user or status with pagination, returning the
// page of orders and the total match count. Exactly one of userID and status
// must be set.
func (s *OrderQueryService) ListOrders(ctx context.Context, userID string, status string, pagination domain.Pagination) ([]*OrderDTO, int64, error) {
	switch {
	case userID != "" && status != "":
		return nil, 0, apperrors.ErrValidation("filter by either userId or status, not both")
	case userID != "":
		orders, err := s.orders.FindByUserID(ctx, userID, pagination)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list orders for user %s: %w", userID, err)
		}
		total, err := s.orders.CountByUserID(ctx, userID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count orders for user %s: %w", userID, err)
		}
		return ToOrderDTOs(orders), total, nil
	case status != "":
		st := domain.Status(status)
		if !st.IsValid() {
			return nil, 0, apperrors.ErrValidation(fmt.Sprintf("unknown status %q", status))
		}
		orders, err := s.orders.FindByStatus(ctx, st, pagination)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list orders with status %s: %w", status, err)
		}
		total, err := s.orders.CountByStatus(ctx, st)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to count orders with status %s: %w", status, err)
		}
		return ToOrderDTOs(orders), total, nil
	default:
		return nil, 0, apperrors.ErrValidation("userId or status filter is required")
	}
}
