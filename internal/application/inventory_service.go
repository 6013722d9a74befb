package application

import (
	"context"
	"fmt"

	"github.com/flashmart/order-service/internal/domain"
	apperrors "github.com/flashmart/order-service/pkg/errors"
	"github.com/flashmart/order-service/pkg/logging"
	"github.com/flashmart/order-service/pkg/metrics"
)

// InventoryService manages the stock records themselves: seeding new SKUs,
// receiving stock and answering availability queries. Reservations are the
// ReservationCoordinator's job.
type InventoryService struct {
	ledgers   domain.LedgerRepository
	publisher domain.EventPublisher
	metrics   *metrics.Metrics
	logger    *logging.Logger
}

// NewInventoryService creates an InventoryService
func NewInventoryService(
	ledgers domain.LedgerRepository,
	publisher domain.EventPublisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *InventoryService {
	return &InventoryService{
		ledgers:   ledgers,
		publisher: publisher,
		metrics:   m,
		logger:    logger.WithComponent("inventory-service"),
	}
}

// CreateLedger seeds the stock record for a new SKU
func (s *InventoryService) CreateLedger(ctx context.Context, cmd CreateLedgerCommand) (*LedgerDTO, error) {
	existing, err := s.ledgers.FindBySKU(ctx, cmd.SKU)
	if err != nil {
		return nil, fmt.Errorf("failed to check ledger for %s: %w", cmd.SKU, err)
	}
	if existing != nil {
		return nil, apperrors.ErrConflict(
			fmt.Sprintf("ledger for %s already exists", cmd.SKU))
	}

	ledger, err := domain.NewInventoryLedger(cmd.SKU, cmd.ProductName, cmd.InitialQty)
	if err != nil {
		return nil, apperrors.ErrValidation(err.Error())
	}

	if err := s.ledgers.Insert(ctx, ledger); err != nil {
		return nil, fmt.Errorf("failed to create ledger for %s: %w", cmd.SKU, err)
	}

	s.logger.WithContext(ctx).Info("Ledger created",
		"sku", cmd.SKU, "initialQty", cmd.InitialQty)
	return ToLedgerDTO(ledger), nil
}

// ReceiveStock adds physical stock to an existing ledger under the same
// version-checked save as reservations.
func (s *InventoryService) ReceiveStock(ctx context.Context, cmd ReceiveStockCommand) (*LedgerDTO, error) {
	ledger, err := mutateLedgerWithRetry(ctx, s.ledgers, s.metrics, cmd.SKU, func(ledger *domain.InventoryLedger) error {
		if err := ledger.Receive(cmd.Qty); err != nil {
			return apperrors.ErrValidation(err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, ledger.DomainEvents())
	s.logger.WithContext(ctx).Info("Stock received", "sku", cmd.SKU, "qty", cmd.Qty)
	return ToLedgerDTO(ledger), nil
}

// GetLedger answers the availability query for one SKU
func (s *InventoryService) GetLedger(ctx context.Context, sku string) (*LedgerDTO, error) {
	if sku == "" {
		return nil, apperrors.ErrValidation("sku is required")
	}

	ledger, err := s.ledgers.FindBySKU(ctx, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger for %s: %w", sku, err)
	}
	if ledger == nil {
		return nil, apperrors.ErrNotFoundWithID("inventory ledger", sku)
	}
	return ToLedgerDTO(ledger), nil
}

func (s *InventoryService) publishEvents(ctx context.Context, events []domain.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.PublishAll(ctx, events); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to publish domain events",
			"count", len(events), "error", err)
	}
}
