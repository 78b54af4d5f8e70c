package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resto_ops_backend/internal/models"
)

func trackedRecord(storeID, templateID int64, total, available int) models.InventoryRecord {
	return models.InventoryRecord{
		StoreID:              storeID,
		InventoryType:        models.InventoryTypeDishTemplate,
		ItemRef:              templateID,
		ItemName:             "Margherita",
		TotalStock:           total,
		AvailableStock:       available,
		IsInventoryTracked:   true,
		EnableAvailableStock: true,
	}
}

func TestReduceStock_RejectsNonPositiveQuantity(t *testing.T) {
	fx := newServiceFixture()

	_, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: 1, Quantity: 0, Reason: "order",
	})

	assert.ErrorIs(t, err, ErrValidation)

	_, err = fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: 1, Quantity: -3, Reason: "order",
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestReduceStock_RequiresReason(t *testing.T) {
	fx := newServiceFixture()

	_, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: 1, Quantity: 2, Reason: "   ",
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestReduceStock_DecrementsGatingCounterAndWritesLedger(t *testing.T) {
	// Arrange
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))

	// Act
	entry, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID:  1,
		RecordID: rec.ID,
		Quantity: 3,
		Reason:   "Order consumption",
		OrderID:  int64Ptr(77),
	})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, models.StockTypeAvailable, entry.StockType)
	assert.Equal(t, models.ChangeTypeOrder, entry.ChangeType)
	assert.Equal(t, 20, entry.PreviousStock)
	assert.Equal(t, 17, entry.NewStock)
	assert.Equal(t, -3, entry.ChangeAmount)

	assert.Equal(t, 17, fx.store.records[rec.ID].AvailableStock)
	assert.Equal(t, 50, fx.store.records[rec.ID].TotalStock)
	require.Len(t, fx.store.ledger, 1)
	assert.Equal(t, int64(77), *fx.store.ledger[0].OrderID)
}

func TestReduceStock_GatesOnTotalWhenAvailableDisabled(t *testing.T) {
	fx := newServiceFixture()
	rec := trackedRecord(1, 10, 8, 0)
	rec.EnableAvailableStock = false
	stored := fx.store.addRecord(rec)

	entry, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: stored.ID, Quantity: 8, Reason: "Order consumption",
	})

	require.NoError(t, err)
	assert.Equal(t, models.StockTypeTotal, entry.StockType)
	assert.Equal(t, 0, fx.store.records[stored.ID].TotalStock)
}

func TestReduceStock_InsufficientStockLeavesStateUntouched(t *testing.T) {
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 2))

	_, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: rec.ID, Quantity: 5, Reason: "Order consumption",
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 2, fx.store.records[rec.ID].AvailableStock)
	assert.Empty(t, fx.store.ledger)
}

func TestReduceStock_UntrackedRecordIsSilentNoOp(t *testing.T) {
	fx := newServiceFixture()
	rec := trackedRecord(1, 10, 50, 20)
	rec.IsInventoryTracked = false
	stored := fx.store.addRecord(rec)

	entry, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: stored.ID, Quantity: 5, Reason: "Order consumption",
	})

	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.Equal(t, 20, fx.store.records[stored.ID].AvailableStock)
	assert.Empty(t, fx.store.ledger)
}

func TestReduceStock_UnknownRecord(t *testing.T) {
	fx := newServiceFixture()

	_, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: 999, Quantity: 1, Reason: "Order consumption",
	})

	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestReduceStock_LedgerFailureRollsBackCounter(t *testing.T) {
	// A counter change whose ledger entry cannot be written must not survive.
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))
	fx.ledger.appendErr = assert.AnError

	_, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: rec.ID, Quantity: 3, Reason: "Order consumption",
	})

	require.Error(t, err)
	assert.Equal(t, 20, fx.store.records[rec.ID].AvailableStock)
	assert.Empty(t, fx.store.ledger)
}

func TestAddStock_DefaultsToTotalAndRestock(t *testing.T) {
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))

	entry, err := fx.mutation.AddStock(AddStockRequest{
		StoreID: 1, RecordID: rec.ID, Quantity: 30, Reason: "Morning delivery",
	})

	require.NoError(t, err)
	assert.Equal(t, models.StockTypeTotal, entry.StockType)
	assert.Equal(t, models.ChangeTypeRestock, entry.ChangeType)
	assert.Equal(t, 50, entry.PreviousStock)
	assert.Equal(t, 80, entry.NewStock)
	assert.Equal(t, 30, entry.ChangeAmount)
	assert.Equal(t, 80, fx.store.records[rec.ID].TotalStock)
}

func TestAddStock_RejectsUnknownStockType(t *testing.T) {
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))

	_, err := fx.mutation.AddStock(AddStockRequest{
		StoreID: 1, RecordID: rec.ID, Quantity: 5, Reason: "Delivery", StockType: "reserved_stock",
	})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestProcessDamage_ForcesDamageChangeType(t *testing.T) {
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))

	entry, err := fx.mutation.ProcessDamage(ReduceStockRequest{
		StoreID:    1,
		RecordID:   rec.ID,
		Quantity:   2,
		Reason:     "Dropped tray",
		ChangeType: models.ChangeTypeOrder,
		OrderID:    int64Ptr(5),
	})

	require.NoError(t, err)
	assert.Equal(t, models.ChangeTypeDamage, entry.ChangeType)
	assert.Nil(t, entry.OrderID)
}

func TestSetAvailableStock_AppliesEvenWhenUntracked(t *testing.T) {
	// Explicit admin absolute-sets bypass the untracked no-op rule.
	fx := newServiceFixture()
	rec := trackedRecord(1, 10, 50, 20)
	rec.IsInventoryTracked = false
	stored := fx.store.addRecord(rec)

	entry, err := fx.mutation.SetAvailableStock(1, stored.ID, 35, "Recount", 9)

	require.NoError(t, err)
	assert.Equal(t, 20, entry.PreviousStock)
	assert.Equal(t, 35, entry.NewStock)
	assert.Equal(t, 15, entry.ChangeAmount)
	assert.Equal(t, models.ChangeTypeSystemAdjustment, entry.ChangeType)
	assert.Equal(t, 35, fx.store.records[stored.ID].AvailableStock)
}

func TestSetAvailableStock_RejectsNegative(t *testing.T) {
	fx := newServiceFixture()

	_, err := fx.mutation.SetAvailableStock(1, 1, -1, "Recount", 9)

	assert.ErrorIs(t, err, ErrValidation)
}

func TestToggleSoldOut(t *testing.T) {
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))

	err := fx.mutation.ToggleSoldOut(1, rec.ID, true, 9)

	require.NoError(t, err)
	assert.True(t, fx.store.records[rec.ID].IsSoldOut)
	// No counter moved, so toggling writes no ledger entry.
	assert.Empty(t, fx.store.ledger)

	err = fx.mutation.ToggleSoldOut(1, 999, true, 9)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestRestoreInventoryForCancelledOrder_RoundTrip(t *testing.T) {
	// Arrange: consume stock under an order.
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))
	orderID := int64(301)
	_, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID:  1,
		RecordID: rec.ID,
		Quantity: 4,
		Reason:   "Order consumption",
		OrderID:  &orderID,
	})
	require.NoError(t, err)
	require.Equal(t, 16, fx.store.records[rec.ID].AvailableStock)

	order := &models.DeliveryOrder{ID: orderID, StoreID: 1, Status: models.OrderStatusCancelled}

	// Act
	restored, failed, err := fx.mutation.RestoreInventoryForCancelledOrder(order)

	// Assert: the consumed quantity is back and the restore is journaled.
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 20, fx.store.records[rec.ID].AvailableStock)

	last := fx.store.ledger[len(fx.store.ledger)-1]
	assert.Equal(t, models.ChangeTypeCancellationRestore, last.ChangeType)
	assert.Equal(t, 4, last.ChangeAmount)
	require.NotNil(t, last.OrderID)
	assert.Equal(t, orderID, *last.OrderID)
}

func TestRestoreInventoryForCancelledOrder_IsIdempotent(t *testing.T) {
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))
	orderID := int64(302)
	_, err := fx.mutation.ReduceStock(ReduceStockRequest{
		StoreID: 1, RecordID: rec.ID, Quantity: 4, Reason: "Order consumption", OrderID: &orderID,
	})
	require.NoError(t, err)

	order := &models.DeliveryOrder{ID: orderID, StoreID: 1}
	restored, _, err := fx.mutation.RestoreInventoryForCancelledOrder(order)
	require.NoError(t, err)
	require.Equal(t, 1, restored)

	// A second restore finds the prior restore entries and does nothing.
	restored, failed, err := fx.mutation.RestoreInventoryForCancelledOrder(order)

	require.NoError(t, err)
	assert.Equal(t, 0, restored)
	assert.Equal(t, 0, failed)
	assert.Equal(t, 20, fx.store.records[rec.ID].AvailableStock)
}

func TestRestoreInventoryForCancelledOrder_NoConsumption(t *testing.T) {
	fx := newServiceFixture()

	restored, failed, err := fx.mutation.RestoreInventoryForCancelledOrder(
		&models.DeliveryOrder{ID: 303, StoreID: 1})

	require.NoError(t, err)
	assert.Zero(t, restored)
	assert.Zero(t, failed)
}

func TestInitializeDishInventory(t *testing.T) {
	// Arrange: two active templates, one already has a record.
	fx := newServiceFixture()
	fx.menu.templates = []models.DishTemplate{
		{ID: 10, StoreID: 1, Name: "Margherita", IsActive: true},
		{ID: 11, StoreID: 1, Name: "Pepperoni", IsActive: true},
		{ID: 12, StoreID: 1, Name: "Retired dish", IsActive: false},
	}
	fx.menu.withInv[10] = true
	fx.store.addRecord(trackedRecord(1, 10, 50, 20))

	// Act
	result, err := fx.mutation.InitializeDishInventory(1, 9)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	created, err := fx.inventory.GetRecordByDishTemplate(1, 11)
	require.NoError(t, err)
	assert.Equal(t, models.InventoryTypeDishTemplate, created.InventoryType)
	assert.Zero(t, created.TotalStock)
}

func TestBulkUpdateInventory_PartialSuccess(t *testing.T) {
	// Arrange
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))

	items := []BulkUpdateItem{
		{
			RecordID:       rec.ID,
			TotalStock:     intPtr(100),
			AvailableStock: intPtr(60),
			Settings:       models.InventorySettingsUpdate{MinStockAlert: intPtr(10)},
			Reason:         "Stocktake",
		},
		{RecordID: 999, TotalStock: intPtr(5)},
	}

	// Act
	result, err := fx.mutation.BulkUpdateInventory(1, items, 9)

	// Assert: one applied with both counters journaled, one failed.
	require.NoError(t, err)
	assert.Equal(t, 1, result.Succeeded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Items, 2)
	assert.True(t, result.Items[0].Success)
	assert.False(t, result.Items[1].Success)

	updated := fx.store.records[rec.ID]
	assert.Equal(t, 100, updated.TotalStock)
	assert.Equal(t, 60, updated.AvailableStock)
	assert.Equal(t, 10, updated.MinStockAlert)
	assert.Len(t, fx.store.ledger, 2)
}

func TestBulkUpdateInventory_RejectsNegativeCounters(t *testing.T) {
	fx := newServiceFixture()
	rec := fx.store.addRecord(trackedRecord(1, 10, 50, 20))

	result, err := fx.mutation.BulkUpdateInventory(1, []BulkUpdateItem{
		{RecordID: rec.ID, TotalStock: intPtr(-1)},
	}, 9)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 50, fx.store.records[rec.ID].TotalStock)
}

func TestBulkUpdateInventory_EmptyRequest(t *testing.T) {
	fx := newServiceFixture()

	_, err := fx.mutation.BulkUpdateInventory(1, nil, 9)

	assert.ErrorIs(t, err, ErrValidation)
}
