package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/flashmart/order-service/pkg/errors"
)

func TestCreateLedger(t *testing.T) {
	env := newTestEnv(t)

	dto, err := env.inventory.CreateLedger(context.Background(), CreateLedgerCommand{
		SKU:         "A1",
		ProductName: "widget",
		InitialQty:  25,
	})
	require.NoError(t, err)

	assert.Equal(t, "A1", dto.SKU)
	assert.Equal(t, 25, dto.ActualQty)
	assert.Equal(t, 0, dto.ReservedQty)
	assert.Equal(t, 25, dto.AvailableQty)
}

func TestCreateLedgerDuplicateSKU(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 10)

	_, err := env.inventory.CreateLedger(context.Background(), CreateLedgerCommand{
		SKU:         "A1",
		ProductName: "widget",
		InitialQty:  5,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, appCode(t, err))
}

func TestCreateLedgerValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.inventory.CreateLedger(context.Background(), CreateLedgerCommand{
		ProductName: "widget",
		InitialQty:  5,
	})
	assert.Equal(t, apperrors.CodeValidationError, appCode(t, err))

	_, err = env.inventory.CreateLedger(context.Background(), CreateLedgerCommand{
		SKU:        "A1",
		InitialQty: -1,
	})
	assert.Equal(t, apperrors.CodeValidationError, appCode(t, err))
}

func TestReceiveStock(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 10)
	env.placeOrder(t, "user-1", OrderLine{SKU: "A1", Qty: 4})

	dto, err := env.inventory.ReceiveStock(context.Background(), ReceiveStockCommand{
		SKU: "A1",
		Qty: 15,
	})
	require.NoError(t, err)

	assert.Equal(t, 25, dto.ActualQty)
	assert.Equal(t, 4, dto.ReservedQty)
	assert.Equal(t, 21, dto.AvailableQty)
}

func TestReceiveStockRejectsNonPositiveQty(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 10)

	_, err := env.inventory.ReceiveStock(context.Background(), ReceiveStockCommand{SKU: "A1", Qty: 0})
	assert.Equal(t, apperrors.CodeValidationError, appCode(t, err))

	assert.Equal(t, 10, env.ledger(t, "A1").ActualQty)
}

func TestGetLedger(t *testing.T) {
	env := newTestEnv(t)
	env.seedLedger(t, "A1", 10)
	env.placeOrder(t, "user-1", OrderLine{SKU: "A1", Qty: 3})

	dto, err := env.inventory.GetLedger(context.Background(), "A1")
	require.NoError(t, err)

	assert.Equal(t, 10, dto.ActualQty)
	assert.Equal(t, 3, dto.ReservedQty)
	assert.Equal(t, 7, dto.AvailableQty)
}

func TestGetLedgerNotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.inventory.GetLedger(context.Background(), "GHOST")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, appCode(t, err))
}
