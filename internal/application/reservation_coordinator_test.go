package application

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashmart/order-service/internal/domain"
	"github.com/flashmart/order-service/internal/infrastructure/memory"
	apperrors "github.com/flashmart/order-service/pkg/errors"
)

func appCode(t *testing.T, err error) string {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	return appErr.Code
}

// reservationAttemptSamples reads the attempt histogram for one SKU:
// how many mutations were recorded and the attempts they consumed in total.
func reservationAttemptSamples(t *testing.T, env *testEnv, sku string) (uint64, float64) {
	t.Helper()
	observer, err := env.metrics.ReservationAttempts.GetMetricWithLabelValues(sku)
	require.NoError(t, err)

	pb := &dto.Metric{}
	require.NoError(t, observer.(prometheus.Metric).Write(pb))
	return pb.GetHistogram().GetSampleCount(), pb.GetHistogram().GetSampleSum()
}

func TestPlaceOrderReservesStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 10)

	result := env.placeOrder(t, "user-1", OrderLine{SKU: "A1", Qty: 2})

	assert.NotEmpty(t, result.OrderID)
	assert.Contains(t, result.PaymentReference, "PAY-")
	assert.Equal(t, string(domain.StatusPlaced), result.Status)

	ledger := env.ledger(t, "A1")
	assert.Equal(t, 10, ledger.ActualQty)
	assert.Equal(t, 2, ledger.ReservedQty)

	order := env.order(t, result.OrderID)
	assert.Equal(t, domain.StatusPlaced, order.Status)
	assert.Equal(t, result.PaymentReference, order.PaymentReference)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Qty)
}

func TestPlaceOrderMergesDuplicateSKUs(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 5)

	result := env.placeOrder(t, "user-1",
		OrderLine{SKU: "A1", Qty: 2},
		OrderLine{SKU: "A1", Qty: 3},
	)

	ledger := env.ledger(t, "A1")
	assert.Equal(t, 5, ledger.ReservedQty)

	order := env.order(t, result.OrderID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 5, order.Items[0].Qty)
}

func TestPlaceOrderValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 10)

	tests := []struct {
		name string
		cmd  PlaceOrderCommand
	}{
		{"empty user", PlaceOrderCommand{Items: []OrderLine{{SKU: "A1", Qty: 1}}}},
		{"no items", PlaceOrderCommand{UserID: "user-1"}},
		{"zero qty", PlaceOrderCommand{UserID: "user-1", Items: []OrderLine{{SKU: "A1", Qty: 0}}}},
		{"negative qty", PlaceOrderCommand{UserID: "user-1", Items: []OrderLine{{SKU: "A1", Qty: -2}}}},
		{"empty sku", PlaceOrderCommand{UserID: "user-1", Items: []OrderLine{{Qty: 1}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.coordinator.PlaceOrder(context.Background(), tt.cmd)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeValidationError, appCode(t, err))

			// Rejected before any side effect
			assert.Equal(t, 0, env.ledger(t, "A1").ReservedQty)
		})
	}
}

func TestPlaceOrderUnknownSKU(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.coordinator.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID: "user-1",
		Items:  []OrderLine{{SKU: "GHOST", Qty: 1}},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, appCode(t, err))
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 3)

	_, err := env.coordinator.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID: "user-1",
		Items:  []OrderLine{{SKU: "A1", Qty: 4}},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "A1", appErr.Details["sku"])

	assert.Equal(t, 0, env.ledger(t, "A1").ReservedQty)
}

func TestPlaceOrderRollsBackPartialReservations(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 5)
	env.seedLedger(t, "B2", 10)

	_, err := env.coordinator.PlaceOrder(context.Background(), PlaceOrderCommand{
		UserID: "user-1",
		Items: []OrderLine{
			{SKU: "A1", Qty: 3},
			{SKU: "B2", Qty: 20},
		},
	})
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "B2", appErr.Details["sku"])

	// The A1 reservation applied before B2 failed is rolled back with the
	// unit of work, and no order row exists.
	assert.Equal(t, 0, env.ledger(t, "A1").ReservedQty)
	assert.Equal(t, 0, env.ledger(t, "B2").ReservedQty)

	orders, err := env.store.Orders().FindByUserID(context.Background(), "user-1", domain.DefaultPagination())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestPlaceOrderRetriesOnVersionConflict(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 10)

	// Interleave a competing writer before the coordinator's first two save
	// attempts so they hit version conflicts; the third succeeds.
	ctx := context.Background()
	conflicts := 0
	inHook := false
	env.store.BeforeLedgerSave = func(sku string) {
		if inHook || conflicts >= 2 {
			return
		}
		inHook = true
		conflicts++
		ledger, err := env.store.Ledgers().FindBySKU(ctx, sku)
		require.NoError(t, err)
		require.NoError(t, env.store.Ledgers().Save(ctx, ledger))
		inHook = false
	}

	result := env.placeOrder(t, "user-1", OrderLine{SKU: "A1", Qty: 2})

	assert.Equal(t, 2, conflicts)
	assert.Equal(t, 2, env.ledger(t, "A1").ReservedQty)
	assert.NotEmpty(t, result.OrderID)

	count, sum := reservationAttemptSamples(t, env, "A1")
	assert.EqualValues(t, 1, count)
	assert.EqualValues(t, 3, sum)
}

func TestPlaceOrderFailsAfterRetryExhaustion(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 10)

	ctx := context.Background()
	inHook := false
	env.store.BeforeLedgerSave = func(sku string) {
		if inHook {
			return
		}
		inHook = true
		ledger, err := env.store.Ledgers().FindBySKU(ctx, sku)
		require.NoError(t, err)
		require.NoError(t, env.store.Ledgers().Save(ctx, ledger))
		inHook = false
	}

	_, err := env.coordinator.PlaceOrder(ctx, PlaceOrderCommand{
		UserID: "user-1",
		Items:  []OrderLine{{SKU: "A1", Qty: 2}},
	})
	require.Error(t, err)

	// Exhaustion is a contention failure, not a stock failure.
	assert.Equal(t, apperrors.CodeConflict, appCode(t, err))
	assert.NotEqual(t, apperrors.CodeInsufficientStock, appCode(t, err))

	env.store.BeforeLedgerSave = nil
	assert.Equal(t, 0, env.ledger(t, "A1").ReservedQty)

	// The abandoned mutation still lands in the attempt histogram with the
	// full retry budget spent.
	count, sum := reservationAttemptSamples(t, env, "A1")
	assert.EqualValues(t, 1, count)
	assert.EqualValues(t, 3, sum)
	assert.Equal(t, float64(1),
		testutil.ToFloat64(env.metrics.ReservationExhaustions.WithLabelValues("A1")))
}

func TestSequentialBurstAdmitsExactlyAvailableStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "HOT", 100)

	successes, outOfStock := 0, 0
	for i := 0; i < 500; i++ {
		_, err := env.coordinator.PlaceOrder(context.Background(), PlaceOrderCommand{
			UserID: "user-1",
			Items:  []OrderLine{{SKU: "HOT", Qty: 1}},
		})
		if err == nil {
			successes++
			continue
		}
		require.Equal(t, apperrors.CodeInsufficientStock, appCode(t, err))
		outOfStock++
	}

	assert.Equal(t, 100, successes)
	assert.Equal(t, 400, outOfStock)
	assert.Equal(t, 100, env.ledger(t, "HOT").ReservedQty)
}

func TestConcurrentBurstNeverOverReserves(t *testing.T) {
	// Interleaved writers need real optimistic conflicts, so this test runs
	// without the serializing transactional runner.
	env := newTestEnvWithRunner(t, memory.PassthroughTransactionRunner{})
	env.seedLedger(t, "HOT", 100)

	const requests = 500

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		outOfStock int
		contention int
	)

	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.coordinator.PlaceOrder(context.Background(), PlaceOrderCommand{
				UserID: "user-burst",
				Items:  []OrderLine{{SKU: "HOT", Qty: 1}},
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			appErr, ok := apperrors.AsAppError(err)
			switch {
			case ok && appErr.Code == apperrors.CodeInsufficientStock:
				outOfStock++
			case ok && appErr.Code == apperrors.CodeConflict:
				contention++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	ledger := env.ledger(t, "HOT")

	// Never more reservations than physical stock, and every admitted
	// request is accounted for in the ledger.
	assert.LessOrEqual(t, successes, 100)
	assert.Equal(t, successes, ledger.ReservedQty)
	assert.Equal(t, 100, ledger.ActualQty)
	assert.Equal(t, requests, successes+outOfStock+contention)
	assert.Positive(t, successes)
}
