package services

import (
	"errors"
	"fmt"

	"resto_ops_backend/internal/models"
	"resto_ops_backend/internal/repositories"
	"resto_ops_backend/pkg/utils"
)

// Custom service-level errors.
var (
	ErrValidation        = errors.New("validation failed")
	ErrRecordNotFound    = errors.New("inventory record not found")
	ErrInsufficientStock = errors.New("insufficient stock for item")
	ErrInvalidDate       = errors.New("invalid date value")
)

// --- Data Transfer Objects (DTOs) ---

// ReduceStockRequest describes one stock reduction.
type ReduceStockRequest struct {
	StoreID    int64  `json:"store_id"`
	RecordID   int64  `json:"record_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Reason     string `json:"reason" binding:"required"`
	ChangeType string `json:"change_type"` // defaults to "order"
	OrderID    *int64 `json:"order_id"`
	AdminID    *int64 `json:"admin_id"`
}

// AddStockRequest describes one stock increase.
type AddStockRequest struct {
	StoreID    int64  `json:"store_id"`
	RecordID   int64  `json:"record_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,gt=0"`
	Reason     string `json:"reason" binding:"required"`
	StockType  string `json:"stock_type"`  // defaults to total_stock
	ChangeType string `json:"change_type"` // defaults to "restock"
	AdminID    *int64 `json:"admin_id"`
}

// BulkUpdateItem is one absolute-set update within a bulk request.
type BulkUpdateItem struct {
	RecordID       int64                          `json:"record_id" binding:"required"`
	TotalStock     *int                           `json:"total_stock,omitempty"`
	AvailableStock *int                           `json:"available_stock,omitempty"`
	Settings       models.InventorySettingsUpdate `json:"settings"`
	Reason         string                         `json:"reason"`
}

// BulkUpdateItemResult reports the outcome for one bulk update item.
type BulkUpdateItemResult struct {
	RecordID int64  `json:"record_id"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// BulkUpdateResult reports per-item outcomes; partial success is allowed.
type BulkUpdateResult struct {
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
	Items     []BulkUpdateItemResult `json:"items"`
}

// InitializeInventoryResult reports the outcome of a bulk initialization.
type InitializeInventoryResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// --- StockMutationService Interface ---

// StockMutationService is the only component permitted to change an inventory
// record's stock fields. Every counter mutation pairs the record update with
// one ledger entry in a single database transaction; if any step fails, no
// write survives. Operations on untracked records are no-ops that still
// report success, except explicit admin absolute-sets.
type StockMutationService interface {
	ReduceStock(req ReduceStockRequest) (*models.StockLedgerEntry, error)
	AddStock(req AddStockRequest) (*models.StockLedgerEntry, error)
	ProcessDamage(req ReduceStockRequest) (*models.StockLedgerEntry, error)
	SetAvailableStock(storeID, recordID int64, availableStock int, reason string, adminID int64) (*models.StockLedgerEntry, error)
	ToggleSoldOut(storeID, recordID int64, isSoldOut bool, adminID int64) error
	// RestoreInventoryForCancelledOrder re-adds every quantity previously
	// reduced under the order. Per-entry failures are counted, not raised,
	// so cancellation itself is never blocked.
	RestoreInventoryForCancelledOrder(order *models.DeliveryOrder) (restored int, failed int, err error)
	InitializeDishInventory(storeID, adminID int64) (*InitializeInventoryResult, error)
	BulkUpdateInventory(storeID int64, items []BulkUpdateItem, adminID int64) (*BulkUpdateResult, error)
}

type stockMutationService struct {
	inventoryRepo repositories.InventoryRepository
	ledgerRepo    repositories.StockLedgerRepository
	menuRepo      repositories.MenuRepository
	txm           repositories.TxManager
}

// NewStockMutationService creates a new instance of StockMutationService.
func NewStockMutationService(
	ir repositories.InventoryRepository,
	lr repositories.StockLedgerRepository,
	mr repositories.MenuRepository,
	txm repositories.TxManager,
) StockMutationService {
	return &stockMutationService{
		inventoryRepo: ir,
		ledgerRepo:    lr,
		menuRepo:      mr,
		txm:           txm,
	}
}

// --- Method Implementations ---

func (s *stockMutationService) ReduceStock(req ReduceStockRequest) (*models.StockLedgerEntry, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrValidation, req.Quantity)
	}
	if utils.IsEmpty(req.Reason) {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}
	changeType := req.ChangeType
	if changeType == "" {
		changeType = models.ChangeTypeOrder
	}

	tx, err := s.txm.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := s.inventoryRepo.GetRecordForUpdate(tx, req.StoreID, req.RecordID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: record ID %d", ErrRecordNotFound, req.RecordID)
		}
		return nil, fmt.Errorf("failed to fetch inventory record %d: %w", req.RecordID, err)
	}
	if !rec.IsInventoryTracked {
		// Untracked items are always available and never mutated.
		return nil, nil
	}

	stockType := rec.GatingStockType()
	previous, current, err := s.inventoryRepo.ReduceCounter(tx, req.StoreID, req.RecordID, stockType, req.Quantity)
	if err != nil {
		if errors.Is(err, repositories.ErrInsufficientStock) {
			return nil, fmt.Errorf("%w %s (record ID: %d). Requested: %d, Available: %d",
				ErrInsufficientStock, rec.ItemName, req.RecordID, req.Quantity, rec.GatingStock())
		}
		return nil, fmt.Errorf("failed to reduce stock for record %d: %w", req.RecordID, err)
	}

	entry := &models.StockLedgerEntry{
		StoreID:       rec.StoreID,
		InventoryType: rec.InventoryType,
		ItemRef:       rec.ItemRef,
		ItemName:      rec.ItemName,
		StockType:     stockType,
		ChangeType:    changeType,
		PreviousStock: previous,
		NewStock:      current,
		ChangeAmount:  -req.Quantity,
		Reason:        req.Reason,
		OrderID:       req.OrderID,
		AdminID:       req.AdminID,
	}
	if _, err := s.ledgerRepo.AppendEntry(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to record ledger entry for record %d: %w", req.RecordID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock reduction: %w", err)
	}
	return entry, nil
}

func (s *stockMutationService) AddStock(req AddStockRequest) (*models.StockLedgerEntry, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive, got %d", ErrValidation, req.Quantity)
	}
	if utils.IsEmpty(req.Reason) {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}
	stockType := req.StockType
	if stockType == "" {
		stockType = models.StockTypeTotal
	}
	if stockType != models.StockTypeTotal && stockType != models.StockTypeAvailable {
		return nil, fmt.Errorf("%w: unknown stock type %q", ErrValidation, stockType)
	}
	changeType := req.ChangeType
	if changeType == "" {
		changeType = models.ChangeTypeRestock
	}

	tx, err := s.txm.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := s.inventoryRepo.GetRecordForUpdate(tx, req.StoreID, req.RecordID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: record ID %d", ErrRecordNotFound, req.RecordID)
		}
		return nil, fmt.Errorf("failed to fetch inventory record %d: %w", req.RecordID, err)
	}
	if !rec.IsInventoryTracked {
		return nil, nil
	}

	previous, current, err := s.inventoryRepo.IncreaseCounter(tx, req.StoreID, req.RecordID, stockType, req.Quantity)
	if err != nil {
		return nil, fmt.Errorf("failed to add stock for record %d: %w", req.RecordID, err)
	}

	entry := &models.StockLedgerEntry{
		StoreID:       rec.StoreID,
		InventoryType: rec.InventoryType,
		ItemRef:       rec.ItemRef,
		ItemName:      rec.ItemName,
		StockType:     stockType,
		ChangeType:    changeType,
		PreviousStock: previous,
		NewStock:      current,
		ChangeAmount:  req.Quantity,
		Reason:        req.Reason,
		AdminID:       req.AdminID,
	}
	if _, err := s.ledgerRepo.AppendEntry(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to record ledger entry for record %d: %w", req.RecordID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit stock addition: %w", err)
	}
	return entry, nil
}

func (s *stockMutationService) ProcessDamage(req ReduceStockRequest) (*models.StockLedgerEntry, error) {
	req.ChangeType = models.ChangeTypeDamage
	req.OrderID = nil
	return s.ReduceStock(req)
}

func (s *stockMutationService) SetAvailableStock(storeID, recordID int64, availableStock int, reason string, adminID int64) (*models.StockLedgerEntry, error) {
	if availableStock < 0 {
		return nil, fmt.Errorf("%w: available stock cannot be negative, got %d", ErrValidation, availableStock)
	}
	if utils.IsEmpty(reason) {
		return nil, fmt.Errorf("%w: reason is required", ErrValidation)
	}

	tx, err := s.txm.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	// Absolute sets apply even to untracked records; the row lock makes the
	// previous value reported in the ledger trustworthy.
	rec, err := s.inventoryRepo.GetRecordForUpdate(tx, storeID, recordID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: record ID %d", ErrRecordNotFound, recordID)
		}
		return nil, fmt.Errorf("failed to fetch inventory record %d: %w", recordID, err)
	}

	current, err := s.inventoryRepo.SetCounter(tx, storeID, recordID, models.StockTypeAvailable, availableStock)
	if err != nil {
		return nil, fmt.Errorf("failed to set available stock for record %d: %w", recordID, err)
	}

	entry := &models.StockLedgerEntry{
		StoreID:       rec.StoreID,
		InventoryType: rec.InventoryType,
		ItemRef:       rec.ItemRef,
		ItemName:      rec.ItemName,
		StockType:     models.StockTypeAvailable,
		ChangeType:    models.ChangeTypeSystemAdjustment,
		PreviousStock: rec.AvailableStock,
		NewStock:      current,
		ChangeAmount:  current - rec.AvailableStock,
		Reason:        reason,
		AdminID:       &adminID,
	}
	if _, err := s.ledgerRepo.AppendEntry(tx, entry); err != nil {
		return nil, fmt.Errorf("failed to record ledger entry for record %d: %w", recordID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit available stock set: %w", err)
	}
	return entry, nil
}

func (s *stockMutationService) ToggleSoldOut(storeID, recordID int64, isSoldOut bool, adminID int64) error {
	tx, err := s.txm.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.inventoryRepo.SetSoldOut(tx, storeID, recordID, isSoldOut); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: record ID %d", ErrRecordNotFound, recordID)
		}
		return fmt.Errorf("failed to toggle sold-out for record %d: %w", recordID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sold-out toggle: %w", err)
	}
	// The flag flip touches no counter, so it carries no quantity ledger
	// entry; the structured log is the audit trail.
	utils.LogInfo("Sold-out flag toggled", map[string]interface{}{
		"store_id":  storeID,
		"record_id": recordID,
		"sold_out":  isSoldOut,
		"admin_id":  adminID,
	})
	return nil
}

func (s *stockMutationService) RestoreInventoryForCancelledOrder(order *models.DeliveryOrder) (int, int, error) {
	if order == nil {
		return 0, 0, fmt.Errorf("%w: order is required", ErrValidation)
	}

	alreadyRestored, err := s.ledgerRepo.HasOrderEntries(order.StoreID, order.ID, models.ChangeTypeCancellationRestore)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to check prior restores for order %d: %w", order.ID, err)
	}
	if alreadyRestored {
		return 0, 0, nil
	}

	consumption, err := s.ledgerRepo.GetOrderConsumption(order.StoreID, order.ID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch consumption entries for order %d: %w", order.ID, err)
	}

	restored := 0
	failed := 0
	for _, consumed := range consumption {
		if consumed.ChangeAmount >= 0 {
			continue
		}
		if err := s.restoreConsumedEntry(order, consumed); err != nil {
			failed++
			utils.LogError(err, "Failed to restore stock for cancelled order")
			continue
		}
		restored++
	}
	return restored, failed, nil
}

// restoreConsumedEntry re-adds one consumed quantity in its own transaction
// so a single failure does not abort the rest of the restore.
func (s *stockMutationService) restoreConsumedEntry(order *models.DeliveryOrder, consumed models.StockLedgerEntry) error {
	rec, err := s.inventoryRepo.GetRecordByItem(models.InventoryKey{
		StoreID:       consumed.StoreID,
		ItemRef:       consumed.ItemRef,
		InventoryType: consumed.InventoryType,
	})
	if err != nil {
		return fmt.Errorf("restore lookup failed for item %d: %w", consumed.ItemRef, err)
	}
	if !rec.IsInventoryTracked {
		return nil
	}

	quantity := -consumed.ChangeAmount

	tx, err := s.txm.Begin()
	if err != nil {
		return fmt.Errorf("failed to start restore transaction: %w", err)
	}
	defer tx.Rollback()

	previous, current, err := s.inventoryRepo.IncreaseCounter(tx, rec.StoreID, rec.ID, consumed.StockType, quantity)
	if err != nil {
		return fmt.Errorf("failed to restore stock for record %d: %w", rec.ID, err)
	}

	entry := &models.StockLedgerEntry{
		StoreID:       rec.StoreID,
		InventoryType: rec.InventoryType,
		ItemRef:       rec.ItemRef,
		ItemName:      rec.ItemName,
		StockType:     consumed.StockType,
		ChangeType:    models.ChangeTypeCancellationRestore,
		PreviousStock: previous,
		NewStock:      current,
		ChangeAmount:  quantity,
		Reason:        fmt.Sprintf("Order %d cancelled, stock restored", order.ID),
		OrderID:       &order.ID,
	}
	if _, err := s.ledgerRepo.AppendEntry(tx, entry); err != nil {
		return fmt.Errorf("failed to record restore ledger entry for record %d: %w", rec.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}
	return nil
}

func (s *stockMutationService) InitializeDishInventory(storeID, adminID int64) (*InitializeInventoryResult, error) {
	missing, err := s.menuRepo.ListTemplatesWithoutInventory(storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates without inventory: %w", err)
	}
	total, err := s.menuRepo.CountActiveTemplates(storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to count templates: %w", err)
	}

	result := &InitializeInventoryResult{Skipped: total - len(missing)}

	// Records are created independently so one failure never aborts the
	// remaining templates.
	for _, template := range missing {
		rec := &models.InventoryRecord{
			StoreID:       storeID,
			InventoryType: models.InventoryTypeDishTemplate,
			ItemRef:       template.ID,
		}
		if err := s.createInitialRecord(rec); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				// Concurrent initialization; record exists now, which is the goal.
				result.Skipped++
				continue
			}
			result.Failed++
			utils.LogError(err, "Failed to initialize inventory record")
			continue
		}
		result.Created++
	}

	utils.LogInfo("Dish inventory initialized", map[string]interface{}{
		"store_id": storeID,
		"admin_id": adminID,
		"created":  result.Created,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	})
	return result, nil
}

func (s *stockMutationService) createInitialRecord(rec *models.InventoryRecord) error {
	tx, err := s.txm.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.inventoryRepo.CreateRecord(tx, rec); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *stockMutationService) BulkUpdateInventory(storeID int64, items []BulkUpdateItem, adminID int64) (*BulkUpdateResult, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no items to update", ErrValidation)
	}

	result := &BulkUpdateResult{Items: make([]BulkUpdateItemResult, 0, len(items))}
	for _, item := range items {
		itemResult := BulkUpdateItemResult{RecordID: item.RecordID, Success: true}
		if err := s.applyBulkUpdateItem(storeID, item, adminID); err != nil {
			itemResult.Success = false
			itemResult.Error = err.Error()
			result.Failed++
		} else {
			result.Succeeded++
		}
		result.Items = append(result.Items, itemResult)
	}
	return result, nil
}

// applyBulkUpdateItem applies one absolute-set update in its own transaction.
func (s *stockMutationService) applyBulkUpdateItem(storeID int64, item BulkUpdateItem, adminID int64) error {
	if item.TotalStock != nil && *item.TotalStock < 0 {
		return fmt.Errorf("%w: total stock cannot be negative", ErrValidation)
	}
	if item.AvailableStock != nil && *item.AvailableStock < 0 {
		return fmt.Errorf("%w: available stock cannot be negative", ErrValidation)
	}

	tx, err := s.txm.Begin()
	if err != nil {
		return fmt.Errorf("failed to start bulk update transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := s.inventoryRepo.GetRecordForUpdate(tx, storeID, item.RecordID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: record ID %d", ErrRecordNotFound, item.RecordID)
		}
		return fmt.Errorf("failed to fetch inventory record %d: %w", item.RecordID, err)
	}

	reason := item.Reason
	if reason == "" {
		reason = "Bulk inventory update"
	}

	if item.TotalStock != nil {
		current, err := s.inventoryRepo.SetCounter(tx, storeID, item.RecordID, models.StockTypeTotal, *item.TotalStock)
		if err != nil {
			return fmt.Errorf("failed to set total stock: %w", err)
		}
		entry := &models.StockLedgerEntry{
			StoreID:       rec.StoreID,
			InventoryType: rec.InventoryType,
			ItemRef:       rec.ItemRef,
			StockType:     models.StockTypeTotal,
			ChangeType:    models.ChangeTypeSystemAdjustment,
			PreviousStock: rec.TotalStock,
			NewStock:      current,
			ChangeAmount:  current - rec.TotalStock,
			Reason:        reason,
			AdminID:       &adminID,
		}
		if _, err := s.ledgerRepo.AppendEntry(tx, entry); err != nil {
			return fmt.Errorf("failed to record total stock ledger entry: %w", err)
		}
	}

	if item.AvailableStock != nil {
		current, err := s.inventoryRepo.SetCounter(tx, storeID, item.RecordID, models.StockTypeAvailable, *item.AvailableStock)
		if err != nil {
			return fmt.Errorf("failed to set available stock: %w", err)
		}
		entry := &models.StockLedgerEntry{
			StoreID:       rec.StoreID,
			InventoryType: rec.InventoryType,
			ItemRef:       rec.ItemRef,
			StockType:     models.StockTypeAvailable,
			ChangeType:    models.ChangeTypeSystemAdjustment,
			PreviousStock: rec.AvailableStock,
			NewStock:      current,
			ChangeAmount:  current - rec.AvailableStock,
			Reason:        reason,
			AdminID:       &adminID,
		}
		if _, err := s.ledgerRepo.AppendEntry(tx, entry); err != nil {
			return fmt.Errorf("failed to record available stock ledger entry: %w", err)
		}
	}

	if err := s.inventoryRepo.UpdateSettings(tx, storeID, item.RecordID, item.Settings); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}

	return tx.Commit()
}
