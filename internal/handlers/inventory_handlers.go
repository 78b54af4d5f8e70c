package handlers

import (
	"errors"
	"net/http"

	"resto_ops_backend/internal/models"
	"resto_ops_backend/internal/repositories"
	"resto_ops_backend/internal/services"
	"resto_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryHandler serves the admin-facing inventory endpoints. The store and
// admin identity come from the JWT claims set by the auth middleware.
type InventoryHandler struct {
	mutationSvc   services.StockMutationService
	inventoryRepo repositories.InventoryRepository
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(ms services.StockMutationService, ir repositories.InventoryRepository) *InventoryHandler {
	return &InventoryHandler{mutationSvc: ms, inventoryRepo: ir}
}

// adminContext extracts the authenticated admin and store ids from the request context.
func adminContext(c *gin.Context) (adminID int64, storeID int64) {
	if v, ok := c.Get("adminID"); ok {
		adminID, _ = v.(int64)
	}
	if v, ok := c.Get("storeID"); ok {
		storeID, _ = v.(int64)
	}
	return adminID, storeID
}

// respondMutationError maps service errors onto admin-facing API errors.
func respondMutationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Input validation failed", err.Error()))
	case errors.Is(err, services.ErrRecordNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory record not found", err.Error()))
	case errors.Is(err, services.ErrInsufficientStock):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock", err.Error()))
	case errors.Is(err, services.ErrInvalidDate):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInvalidDate, "Invalid date value", err.Error()))
	default:
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Unexpected error", err.Error()))
	}
}

// GetInventoryRecords handles listing inventory records for the admin's store.
func (h *InventoryHandler) GetInventoryRecords(c *gin.Context) {
	_, storeID := adminContext(c)

	var filters models.InventoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	records, totalCount, err := h.inventoryRepo.ListRecords(storeID, filters)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to list inventory records", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "total_count": totalCount})
}

// GetInventoryRecordByID handles fetching one inventory record. A missing
// record is a hard 404 on this direct admin lookup path.
func (h *InventoryHandler) GetInventoryRecordByID(c *gin.Context) {
	_, storeID := adminContext(c)

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid inventory record ID")
		return
	}

	rec, err := h.inventoryRepo.GetRecordByID(storeID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Inventory record not found", ""))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch inventory record", err.Error()))
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ReduceStock handles a manual stock reduction.
func (h *InventoryHandler) ReduceStock(c *gin.Context) {
	adminID, storeID := adminContext(c)

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid inventory record ID")
		return
	}

	var req services.ReduceStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	req.StoreID = storeID
	req.RecordID = id
	req.AdminID = &adminID

	entry, err := h.mutationSvc.ReduceStock(req)
	if err != nil {
		respondMutationError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Item is not inventory tracked; nothing to reduce"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// AddStock handles a restock.
func (h *InventoryHandler) AddStock(c *gin.Context) {
	adminID, storeID := adminContext(c)

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid inventory record ID")
		return
	}

	var req services.AddStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	req.StoreID = storeID
	req.RecordID = id
	req.AdminID = &adminID

	entry, err := h.mutationSvc.AddStock(req)
	if err != nil {
		respondMutationError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Item is not inventory tracked; nothing to add"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

// ProcessDamage handles recording damaged/spoiled stock.
func (h *InventoryHandler) ProcessDamage(c *gin.Context) {
	adminID, storeID := adminContext(c)

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid inventory record ID")
		return
	}

	var req services.ReduceStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	req.StoreID = storeID
	req.RecordID = id
	req.AdminID = &adminID

	entry, err := h.mutationSvc.ProcessDamage(req)
	if err != nil {
		respondMutationError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Item is not inventory tracked; nothing to record"})
		return
	}
	c.JSON(http.StatusOK, entry)
}

type setAvailableStockRequest struct {
	AvailableStock *int   `json:"available_stock" binding:"required"`
	Reason         string `json:"reason" binding:"required"`
}

// SetAvailableStock handles an absolute set of the available counter.
func (h *InventoryHandler) SetAvailableStock(c *gin.Context) {
	adminID, storeID := adminContext(c)

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid inventory record ID")
		return
	}

	var req setAvailableStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	entry, err := h.mutationSvc.SetAvailableStock(storeID, id, *req.AvailableStock, req.Reason, adminID)
	if err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

type toggleSoldOutRequest struct {
	IsSoldOut *bool `json:"is_sold_out" binding:"required"`
}

// ToggleSoldOut handles flipping the sold-out override flag.
func (h *InventoryHandler) ToggleSoldOut(c *gin.Context) {
	adminID, storeID := adminContext(c)

	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid inventory record ID")
		return
	}

	var req toggleSoldOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	if err := h.mutationSvc.ToggleSoldOut(storeID, id, *req.IsSoldOut, adminID); err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Sold-out flag updated", "is_sold_out": *req.IsSoldOut})
}

// InitializeInventory handles bulk-creating default records for every dish
// template in the store lacking one. Running it twice is harmless.
func (h *InventoryHandler) InitializeInventory(c *gin.Context) {
	adminID, storeID := adminContext(c)

	result, err := h.mutationSvc.InitializeDishInventory(storeID, adminID)
	if err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type bulkUpdateRequest struct {
	Items []services.BulkUpdateItem `json:"items" binding:"required,dive"`
}

// BulkUpdateInventory handles a list of absolute-set updates with partial
// success reported per item.
func (h *InventoryHandler) BulkUpdateInventory(c *gin.Context) {
	adminID, storeID := adminContext(c)

	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	result, err := h.mutationSvc.BulkUpdateInventory(storeID, req.Items, adminID)
	if err != nil {
		respondMutationError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
