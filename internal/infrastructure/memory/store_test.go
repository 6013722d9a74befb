package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flashmart/order-service/internal/domain"
)

func seedLedger(t *testing.T, store *Store, sku string, qty int) {
	t.Helper()
	ledger, err := domain.NewInventoryLedger(sku, sku+" product", qty)
	require.NoError(t, err)
	require.NoError(t, store.Ledgers().Insert(context.Background(), ledger))
}

func TestLedgerSaveDetectsStaleVersion(t *testing.T) {
	store := NewStore()
	seedLedger(t, store, "A1", 10)
	ctx := context.Background()

	// Two writers load the same version.
	first, err := store.Ledgers().FindBySKU(ctx, "A1")
	require.NoError(t, err)
	second, err := store.Ledgers().FindBySKU(ctx, "A1")
	require.NoError(t, err)

	require.NoError(t, first.Reserve(3))
	require.NoError(t, store.Ledgers().Save(ctx, first))

	// The second writer's save must be rejected, not merged.
	require.NoError(t, second.Reserve(5))
	err = store.Ledgers().Save(ctx, second)
	assert.ErrorIs(t, err, domain.ErrVersionConflict)

	current, err := store.Ledgers().FindBySKU(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 3, current.ReservedQty)
}

func TestLedgerSaveBumpsVersion(t *testing.T) {
	store := NewStore()
	seedLedger(t, store, "A1", 10)
	ctx := context.Background()

	ledger, err := store.Ledgers().FindBySKU(ctx, "A1")
	require.NoError(t, err)
	loaded := ledger.Version

	require.NoError(t, ledger.Reserve(1))
	require.NoError(t, store.Ledgers().Save(ctx, ledger))
	assert.Equal(t, loaded+1, ledger.Version)

	// A stale save with the old handle now conflicts.
	ledger.Version = loaded
	assert.ErrorIs(t, store.Ledgers().Save(ctx, ledger), domain.ErrVersionConflict)
}

func TestFindBySKUReturnsCopy(t *testing.T) {
	store := NewStore()
	seedLedger(t, store, "A1", 10)
	ctx := context.Background()

	ledger, err := store.Ledgers().FindBySKU(ctx, "A1")
	require.NoError(t, err)
	require.NoError(t, ledger.Reserve(5))

	// Unsaved mutations must not leak into the store.
	fresh, err := store.Ledgers().FindBySKU(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.ReservedQty)
}

func TestMissingRowsReturnNilNil(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	ledger, err := store.Ledgers().FindBySKU(ctx, "GHOST")
	require.NoError(t, err)
	assert.Nil(t, ledger)

	order, err := store.Orders().FindByID(ctx, "ORD-ghost")
	require.NoError(t, err)
	assert.Nil(t, order)
}

func TestTransactionRollbackRestoresState(t *testing.T) {
	store := NewStore()
	seedLedger(t, store, "A1", 10)
	ctx := context.Background()
	txn := NewTransactionRunner(store)

	failed := assert.AnError
	err := txn.Execute(ctx, func(txCtx context.Context) error {
		ledger, err := store.Ledgers().FindBySKU(txCtx, "A1")
		require.NoError(t, err)
		require.NoError(t, ledger.Reserve(4))
		require.NoError(t, store.Ledgers().Save(txCtx, ledger))

		order, err := domain.NewOrder(domain.NewOrderID(), "user-1", []domain.OrderItem{{SKU: "A1", Qty: 4}})
		require.NoError(t, err)
		require.NoError(t, store.Orders().Insert(txCtx, order))

		return failed
	})
	assert.ErrorIs(t, err, failed)

	// Both writes are gone.
	ledger, err := store.Ledgers().FindBySKU(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 0, ledger.ReservedQty)
	assert.Equal(t, int64(0), ledger.Version)

	orders, err := store.Orders().FindByUserID(ctx, "user-1", domain.DefaultPagination())
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestTransactionCommitKeepsState(t *testing.T) {
	store := NewStore()
	seedLedger(t, store, "A1", 10)
	ctx := context.Background()
	txn := NewTransactionRunner(store)

	err := txn.Execute(ctx, func(txCtx context.Context) error {
		ledger, err := store.Ledgers().FindBySKU(txCtx, "A1")
		require.NoError(t, err)
		require.NoError(t, ledger.Reserve(4))
		return store.Ledgers().Save(txCtx, ledger)
	})
	require.NoError(t, err)

	ledger, err := store.Ledgers().FindBySKU(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, 4, ledger.ReservedQty)
}
