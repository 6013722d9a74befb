package application

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flashmart/order-service/internal/domain"
	"github.com/flashmart/order-service/internal/infrastructure/memory"
	"github.com/flashmart/order-service/pkg/logging"
	"github.com/flashmart/order-service/pkg/metrics"
)

type testEnv struct {
	store       *memory.Store
	metrics     *metrics.Metrics
	coordinator *ReservationCoordinator
	lifecycle   *OrderLifecycleService
	inventory   *InventoryService
	queries     *OrderQueryService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithRunner(t, nil)
}

// newTestEnvWithRunner builds the services over the in-memory versioned
// store. A nil runner gets the snapshot-based transactional one.
func newTestEnvWithRunner(t *testing.T, txn domain.TransactionRunner) *testEnv {
	t.Helper()

	store := memory.NewStore()
	if txn == nil {
		txn = memory.NewTransactionRunner(store)
	}

	logConfig := logging.DefaultConfig("order-service-test")
	logConfig.Output = io.Discard
	logger := logging.New(logConfig)

	m := metrics.New(metrics.DefaultConfig("order-service-test"))

	return &testEnv{
		store:       store,
		metrics:     m,
		coordinator: NewReservationCoordinator(store.Ledgers(), store.Orders(), txn, nil, m, logger),
		lifecycle:   NewOrderLifecycleService(store.Ledgers(), store.Orders(), txn, nil, m, logger),
		inventory:   NewInventoryService(store.Ledgers(), nil, m, logger),
		queries:     NewOrderQueryService(store.Orders(), logger),
	}
}

func (e *testEnv) seedLedger(t *testing.T, sku string, qty int) {
	t.Helper()
	_, err := e.inventory.CreateLedger(context.Background(), CreateLedgerCommand{
		SKU:         sku,
		ProductName: sku + " product",
		InitialQty:  qty,
	})
	require.NoError(t, err)
}

func (e *testEnv) ledger(t *testing.T, sku string) *domain.InventoryLedger {
	t.Helper()
	ledger, err := e.store.Ledgers().FindBySKU(context.Background(), sku)
	require.NoError(t, err)
	require.NotNil(t, ledger)
	return ledger
}

func (e *testEnv) order(t *testing.T, orderID string) *domain.Order {
	t.Helper()
	order, err := e.store.Orders().FindByID(context.Background(), orderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	return order
}

func (e *testEnv) placeOrder(t *testing.T, userID string, lines ...OrderLine) *PlaceOrderResult {
	t.Helper()
	result, err := e.coordinator.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID: userID,
		Items:  lines,
	})
	require.NoError(t, err)
	return result
}
