package services

import (
	"errors"
	"fmt"

	"resto_ops_backend/internal/models"
	"resto_ops_backend/internal/repositories"
	"resto_ops_backend/pkg/utils"
)

// Issue kinds reported by order inventory validation and single-item reduction.
const (
	IssueSoldOut           = "sold_out"
	IssueInsufficientStock = "insufficient_stock"

	ReduceOutcomeReduced           = "reduced"
	ReduceOutcomeNotTracked        = "not_tracked"
	ReduceOutcomeSoldOut           = "sold_out"
	ReduceOutcomeNoInventoryRecord = "no_inventory_record"
	ReduceOutcomeInvalidTemplateID = "invalid_template_id"
	ReduceOutcomeReductionError    = "reduction_error"
)

// --- Data Transfer Objects (DTOs) ---

// InventoryIssue is one stock problem found during validation.
type InventoryIssue struct {
	TemplateID int64  `json:"template_id"`
	ItemName   string `json:"item_name"`
	Issue      string `json:"issue"`
	Required   int    `json:"required"`
	Available  int    `json:"available"`
}

// ValidationResult is the outcome of validating an order's stock demand.
type ValidationResult struct {
	Success      bool             `json:"success"`
	InventoryMap map[int64]int    `json:"inventory_map"`
	Issues       []InventoryIssue `json:"issues"`
}

// ReductionError records one template whose reduction failed.
type ReductionError struct {
	TemplateID int64  `json:"template_id"`
	Error      string `json:"error"`
}

// ReductionResult is the outcome of driving stock reductions for an order.
// Already-applied reductions are not rolled back on partial failure; the
// caller decides whether to compensate.
type ReductionResult struct {
	Success   bool             `json:"success"`
	Processed int              `json:"processed"`
	Skipped   int              `json:"skipped"`
	Errors    []ReductionError `json:"errors"`
}

// RestoreResult is the outcome of a best-effort cancellation restore.
type RestoreResult struct {
	Success  bool   `json:"success"`
	Restored int    `json:"restored"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// --- OrderInventoryService Interface ---

// OrderInventoryService expands delivery-platform order lines into a flat
// per-template demand map, validates stock sufficiency, and drives the stock
// mutation service for reductions and cancellation restores.
type OrderInventoryService interface {
	// ValidateDeliveryOrderInventory aggregates demand and checks it against
	// inventory records. Lookup failures for individual lines or options are
	// skipped (logged, not raised); genuine shortages accumulate as issues.
	ValidateDeliveryOrderInventory(order *models.DeliveryOrder) (*ValidationResult, error)
	// ReduceDeliveryOrderInventory applies a previously validated demand map.
	ReduceDeliveryOrderInventory(order *models.DeliveryOrder, inventoryMap map[int64]int) *ReductionResult
	// ReduceSingleItemForDelivery guards and reduces one template for an
	// ad-hoc adjustment, returning an outcome code.
	ReduceSingleItemForDelivery(order *models.DeliveryOrder, templateRef string, quantity int) (string, error)
	CanProcessInventoryForDeliveryOrder(order *models.DeliveryOrder) bool
	RestoreDeliveryOrderInventory(order *models.DeliveryOrder) *RestoreResult
}

type orderInventoryService struct {
	inventoryRepo repositories.InventoryRepository
	menuRepo      repositories.MenuRepository
	mutationSvc   StockMutationService
}

// NewOrderInventoryService creates a new instance of OrderInventoryService.
func NewOrderInventoryService(
	ir repositories.InventoryRepository,
	mr repositories.MenuRepository,
	ms StockMutationService,
) OrderInventoryService {
	return &orderInventoryService{
		inventoryRepo: ir,
		menuRepo:      mr,
		mutationSvc:   ms,
	}
}

// --- Method Implementations ---

func (s *orderInventoryService) ValidateDeliveryOrderInventory(order *models.DeliveryOrder) (*ValidationResult, error) {
	if order == nil {
		return nil, fmt.Errorf("%w: order is required", ErrValidation)
	}

	result := &ValidationResult{
		Success:      true,
		InventoryMap: map[int64]int{},
		Issues:       []InventoryIssue{},
	}

	for _, line := range order.LineItems {
		if line.ItemType != models.LineItemTypeDish || line.Quantity <= 0 {
			continue
		}
		s.accumulateLineDemand(order, line, result.InventoryMap)
	}

	for templateID, required := range result.InventoryMap {
		rec, err := s.inventoryRepo.GetRecordByDishTemplate(order.StoreID, templateID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				// No record means the item is untracked and unconditionally
				// available; it stays in the demand map for the reduce phase.
				continue
			}
			return nil, fmt.Errorf("failed to fetch inventory record for template %d: %w", templateID, err)
		}
		if !rec.IsInventoryTracked || !rec.EnableAvailableStock {
			continue
		}
		if rec.IsSoldOut {
			result.Success = false
			result.Issues = append(result.Issues, InventoryIssue{
				TemplateID: templateID,
				ItemName:   rec.ItemName,
				Issue:      IssueSoldOut,
				Required:   required,
				Available:  0,
			})
			continue
		}
		if rec.AvailableStock < required {
			result.Success = false
			result.Issues = append(result.Issues, InventoryIssue{
				TemplateID: templateID,
				ItemName:   rec.ItemName,
				Issue:      IssueInsufficientStock,
				Required:   required,
				Available:  rec.AvailableStock,
			})
		}
	}

	return result, nil
}

// accumulateLineDemand adds one order line's demand, including the demand of
// option selections that reference their own stock-tracked template. A line
// with a broken dish-instance or option reference is skipped, never fatal:
// one bad reference must not block the whole order's stock check.
func (s *orderInventoryService) accumulateLineDemand(order *models.DeliveryOrder, line models.OrderLineItem, demand map[int64]int) {
	instanceID, err := utils.StrToInt64(line.DishInstanceRef)
	if err != nil || instanceID <= 0 {
		utils.LogWarn("Skipping order line with malformed dish instance ref", map[string]interface{}{
			"order_id":          order.ID,
			"dish_instance_ref": line.DishInstanceRef,
		})
		return
	}

	instance, err := s.menuRepo.GetDishInstance(order.StoreID, instanceID)
	if err != nil {
		utils.LogWarn("Skipping order line with unresolvable dish instance", map[string]interface{}{
			"order_id":         order.ID,
			"dish_instance_id": instanceID,
			"error":            err.Error(),
		})
		return
	}

	demand[instance.TemplateID] += line.Quantity

	// One unit of a referenced template per order-line unit, independent of
	// how many selections in the line point at it.
	referenced := map[int64]bool{}
	for _, sel := range instance.Selections {
		option, err := s.menuRepo.GetOption(sel.OptionID)
		if err != nil {
			utils.LogWarn("Skipping unresolvable option selection", map[string]interface{}{
				"order_id":  order.ID,
				"option_id": sel.OptionID,
				"error":     err.Error(),
			})
			continue
		}
		if option.RefDishTemplateID == nil || referenced[*option.RefDishTemplateID] {
			continue
		}
		referenced[*option.RefDishTemplateID] = true
		demand[*option.RefDishTemplateID] += line.Quantity
	}
}

func (s *orderInventoryService) ReduceDeliveryOrderInventory(order *models.DeliveryOrder, inventoryMap map[int64]int) *ReductionResult {
	result := &ReductionResult{Success: true, Errors: []ReductionError{}}
	if order == nil || len(inventoryMap) == 0 {
		return result
	}

	reason := s.reductionReason(order)

	for templateID, quantity := range inventoryMap {
		if templateID <= 0 {
			result.Skipped++
			continue
		}
		rec, err := s.inventoryRepo.GetRecordByDishTemplate(order.StoreID, templateID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				result.Skipped++
				continue
			}
			result.Errors = append(result.Errors, ReductionError{TemplateID: templateID, Error: err.Error()})
			continue
		}
		if !rec.IsInventoryTracked || rec.IsSoldOut {
			result.Skipped++
			continue
		}

		_, err = s.mutationSvc.ReduceStock(ReduceStockRequest{
			StoreID:    order.StoreID,
			RecordID:   rec.ID,
			Quantity:   quantity,
			Reason:     reason,
			ChangeType: models.ChangeTypeOrder,
			OrderID:    &order.ID,
		})
		if err != nil {
			result.Errors = append(result.Errors, ReductionError{TemplateID: templateID, Error: err.Error()})
			continue
		}
		result.Processed++
	}

	result.Success = len(result.Errors) == 0
	return result
}

func (s *orderInventoryService) ReduceSingleItemForDelivery(order *models.DeliveryOrder, templateRef string, quantity int) (string, error) {
	templateID, err := utils.StrToInt64(templateRef)
	if err != nil || templateID <= 0 {
		return ReduceOutcomeInvalidTemplateID, nil
	}

	rec, err := s.inventoryRepo.GetRecordByDishTemplate(order.StoreID, templateID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ReduceOutcomeNoInventoryRecord, nil
		}
		return ReduceOutcomeReductionError, err
	}
	if !rec.IsInventoryTracked {
		return ReduceOutcomeNotTracked, nil
	}
	if rec.IsSoldOut {
		return ReduceOutcomeSoldOut, nil
	}

	_, err = s.mutationSvc.ReduceStock(ReduceStockRequest{
		StoreID:    order.StoreID,
		RecordID:   rec.ID,
		Quantity:   quantity,
		Reason:     s.reductionReason(order),
		ChangeType: models.ChangeTypeOrder,
		OrderID:    &order.ID,
	})
	if err != nil {
		return ReduceOutcomeReductionError, err
	}
	return ReduceOutcomeReduced, nil
}

// CanProcessInventoryForDeliveryOrder is the eligibility gate the order
// pipeline consults before invoking the resolver: the order must carry
// delivery-platform metadata, contain at least one dish line, and be in a
// paid/consumable state.
func (s *orderInventoryService) CanProcessInventoryForDeliveryOrder(order *models.DeliveryOrder) bool {
	if order == nil || order.Platform == nil || order.Platform.Platform == "" {
		return false
	}
	switch order.Status {
	case models.OrderStatusPaid, models.OrderStatusPreparing, models.OrderStatusReady, models.OrderStatusCompleted:
	default:
		return false
	}
	for _, line := range order.LineItems {
		if line.ItemType == models.LineItemTypeDish {
			return true
		}
	}
	return false
}

// RestoreDeliveryOrderInventory restores stock for a cancelled order.
// Failures are converted into a structured result, never propagated, because
// cancellation must complete even if bookkeeping cannot be perfectly reversed.
func (s *orderInventoryService) RestoreDeliveryOrderInventory(order *models.DeliveryOrder) *RestoreResult {
	restored, failed, err := s.mutationSvc.RestoreInventoryForCancelledOrder(order)
	if err != nil {
		return &RestoreResult{
			Success: false,
			Error:   err.Error(),
			Message: "Inventory restoration failed; order cancellation is unaffected",
		}
	}
	if failed > 0 {
		return &RestoreResult{
			Success:  false,
			Restored: restored,
			Message:  fmt.Sprintf("Restored %d item(s), %d failed", restored, failed),
		}
	}
	return &RestoreResult{
		Success:  true,
		Restored: restored,
		Message:  fmt.Sprintf("Restored %d item(s)", restored),
	}
}

func (s *orderInventoryService) reductionReason(order *models.DeliveryOrder) string {
	if order.Platform != nil {
		return fmt.Sprintf("Delivery order consumption: %s #%s", order.Platform.Platform, order.Platform.PlatformOrderID)
	}
	return fmt.Sprintf("Order %d consumption", order.ID)
}
