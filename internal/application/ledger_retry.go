package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flashmart/order-service/internal/domain"
	apperrors "github.com/flashmart/order-service/pkg/errors"
	"github.com/flashmart/order-service/pkg/metrics"
)

// mutateLedgerWithRetry drives one ledger mutation through the optimistic
// cycle: load, apply mutate in memory, version-checked save. A version
// conflict discards the in-memory state, backs off briefly and retries up to
// the budget. Errors from mutate are business failures and abort immediately.
func mutateLedgerWithRetry(
	ctx context.Context,
	ledgers domain.LedgerRepository,
	m *metrics.Metrics,
	sku string,
	mutate func(*domain.InventoryLedger) error,
) (*domain.InventoryLedger, error) {
	for attempt := 1; attempt <= reserveMaxAttempts; attempt++ {
		ledger, err := ledgers.FindBySKU(ctx, sku)
		if err != nil {
			return nil, fmt.Errorf("failed to load ledger for %s: %w", sku, err)
		}
		if ledger == nil {
			return nil, apperrors.ErrNotFoundWithID("inventory ledger", sku)
		}

		if err := mutate(ledger); err != nil {
			m.RecordReservationOutcome(sku, attempt)
			return nil, err
		}

		err = ledgers.Save(ctx, ledger)
		if err == nil {
			m.RecordReservationOutcome(sku, attempt)
			return ledger, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			m.RecordReservationOutcome(sku, attempt)
			return nil, fmt.Errorf("failed to save ledger for %s: %w", sku, err)
		}

		m.ReservationConflicts.WithLabelValues(sku).Inc()

		if attempt < reserveMaxAttempts {
			select {
			case <-ctx.Done():
				m.RecordReservationOutcome(sku, attempt)
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * reserveBaseBackoff):
			}
		}
	}

	m.RecordReservationOutcome(sku, reserveMaxAttempts)
	m.ReservationExhaustions.WithLabelValues(sku).Inc()
	return nil, apperrors.ErrConflict(
		fmt.Sprintf("update of %s failed under contention, please retry", sku))
}
