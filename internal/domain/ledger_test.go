package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLedger(t *testing.T, actual, reserved int) *InventoryLedger {
	t.Helper()
	ledger, err := NewInventoryLedger("SKU-001", "Test Product", actual)
	require.NoError(t, err)
	ledger.ReservedQty = reserved
	ledger.ClearDomainEvents()
	return ledger
}

func TestNewInventoryLedger(t *testing.T) {
	tests := []struct {
		name        string
		sku         string
		initialQty  int
		expectError error
	}{
		{
			name:       "Valid ledger creation",
			sku:        "SKU-001",
			initialQty: 100,
		},
		{
			name:       "Zero initial stock",
			sku:        "SKU-002",
			initialQty: 0,
		},
		{
			name:        "Missing SKU",
			sku:         "",
			initialQty:  10,
			expectError: ErrEmptySKU,
		},
		{
			name:        "Negative initial stock",
			sku:         "SKU-003",
			initialQty:  -1,
			expectError: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, err := NewInventoryLedger(tt.sku, "Test Product", tt.initialQty)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, ledger)
			} else {
				require.NoError(t, err)
				require.NotNil(t, ledger)
				assert.Equal(t, tt.sku, ledger.SKU)
				assert.Equal(t, tt.initialQty, ledger.ActualQty)
				assert.Zero(t, ledger.ReservedQty)
				assert.Zero(t, ledger.Version)
				assert.Equal(t, tt.initialQty, ledger.AvailableQty())
			}
		})
	}
}

func TestLedgerReserve(t *testing.T) {
	tests := []struct {
		name           string
		actual         int
		reserved       int
		qty            int
		expectError    error
		expectReserved int
	}{
		{
			name:           "Reserve within availability",
			actual:         10,
			reserved:       0,
			qty:            2,
			expectReserved: 2,
		},
		{
			name:           "Reserve exactly the remaining availability",
			actual:         10,
			reserved:       7,
			qty:            3,
			expectReserved: 10,
		},
		{
			name:        "Reserve more than available",
			actual:      5,
			reserved:    3,
			qty:         3,
			expectError: ErrInsufficientStock,
		},
		{
			name:        "Reserve zero",
			actual:      5,
			reserved:    0,
			qty:         0,
			expectError: ErrInvalidQuantity,
		},
		{
			name:        "Reserve negative",
			actual:      5,
			reserved:    0,
			qty:         -1,
			expectError: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := createTestLedger(t, tt.actual, tt.reserved)

			err := ledger.Reserve(tt.qty)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Equal(t, tt.reserved, ledger.ReservedQty)
				assert.Empty(t, ledger.DomainEvents())
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectReserved, ledger.ReservedQty)
				assert.Equal(t, tt.actual, ledger.ActualQty)
				assert.GreaterOrEqual(t, ledger.AvailableQty(), 0)

				events := ledger.DomainEvents()
				require.Len(t, events, 1)
				event, ok := events[0].(*StockReservedEvent)
				require.True(t, ok)
				assert.Equal(t, tt.qty, event.Quantity)
			}
		})
	}
}

func TestLedgerCommit(t *testing.T) {
	tests := []struct {
		name           string
		actual         int
		reserved       int
		qty            int
		expectError    error
		expectActual   int
		expectReserved int
	}{
		{
			name:           "Commit part of a reservation",
			actual:         10,
			reserved:       5,
			qty:            3,
			expectActual:   7,
			expectReserved: 2,
		},
		{
			name:           "Commit entire reservation",
			actual:         10,
			reserved:       5,
			qty:            5,
			expectActual:   5,
			expectReserved: 0,
		},
		{
			name:        "Commit more than reserved",
			actual:      10,
			reserved:    2,
			qty:         3,
			expectError: ErrInvalidCommit,
		},
		{
			name:        "Commit zero",
			actual:      10,
			reserved:    2,
			qty:         0,
			expectError: ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := createTestLedger(t, tt.actual, tt.reserved)

			err := ledger.Commit(tt.qty)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Equal(t, tt.actual, ledger.ActualQty)
				assert.Equal(t, tt.reserved, ledger.ReservedQty)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectActual, ledger.ActualQty)
				assert.Equal(t, tt.expectReserved, ledger.ReservedQty)
			}
		})
	}
}

func TestLedgerRelease(t *testing.T) {
	tests := []struct {
		name           string
		actual         int
		reserved       int
		qty            int
		expectError    error
		expectReserved int
	}{
		{
			name:           "Release part of a reservation",
			actual:         10,
			reserved:       5,
			qty:            2,
			expectReserved: 3,
		},
		{
			name:           "Release entire reservation",
			actual:         10,
			reserved:       5,
			qty:            5,
			expectReserved: 0,
		},
		{
			name:        "Release more than reserved",
			actual:      10,
			reserved:    1,
			qty:         2,
			expectError: ErrInvalidRelease,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := createTestLedger(t, tt.actual, tt.reserved)

			err := ledger.Release(tt.qty)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Equal(t, tt.reserved, ledger.ReservedQty)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectReserved, ledger.ReservedQty)
				// Release never touches physical stock
				assert.Equal(t, tt.actual, ledger.ActualQty)
			}
		})
	}
}

// TestLedgerInvariant drives a mixed operation sequence and checks the stock
// accounting invariant after every step.
func TestLedgerInvariant(t *testing.T) {
	ledger := createTestLedger(t, 20, 0)

	ops := []struct {
		op  func(int) error
		qty int
	}{
		{ledger.Reserve, 5},
		{ledger.Reserve, 10},
		{ledger.Commit, 8},
		{ledger.Release, 4},
		{ledger.Reserve, 6},
		{ledger.Commit, 9},
		{ledger.Receive, 3},
		{ledger.Reserve, 2},
	}

	for i, step := range ops {
		require.NoError(t, step.op(step.qty), "step %d", i)
		assert.GreaterOrEqual(t, ledger.ReservedQty, 0, "step %d", i)
		assert.GreaterOrEqual(t, ledger.ActualQty, ledger.ReservedQty, "step %d", i)
		assert.GreaterOrEqual(t, ledger.AvailableQty(), 0, "step %d", i)
	}
}

func TestLedgerReceive(t *testing.T) {
	ledger := createTestLedger(t, 5, 5)

	require.NoError(t, ledger.Receive(10))
	assert.Equal(t, 15, ledger.ActualQty)
	assert.Equal(t, 5, ledger.ReservedQty)
	assert.Equal(t, 10, ledger.AvailableQty())

	assert.ErrorIs(t, ledger.Receive(0), ErrInvalidQuantity)
}
