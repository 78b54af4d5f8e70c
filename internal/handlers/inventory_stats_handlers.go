package handlers

import (
	"errors"
	"net/http"

	"resto_ops_backend/internal/models"
	"resto_ops_backend/internal/services"
	"resto_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// InventoryStatsHandler serves the read-only statistics and health endpoints.
type InventoryStatsHandler struct {
	statsSvc services.StockStatsService
}

// NewInventoryStatsHandler creates a new InventoryStatsHandler.
func NewInventoryStatsHandler(ss services.StockStatsService) *InventoryStatsHandler {
	return &InventoryStatsHandler{statsSvc: ss}
}

// GetInventoryLogs handles the filterable, paginated ledger listing.
func (h *InventoryStatsHandler) GetInventoryLogs(c *gin.Context) {
	_, storeID := adminContext(c)

	var filters models.LedgerFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	entries, totalCount, err := h.statsSvc.GetInventoryLogs(storeID, filters)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInvalidDate, "Invalid date value", err.Error()))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch inventory logs", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total_count": totalCount})
}

// GetItemInventoryStats handles the per-item consumption projection. A
// missing record yields the zeroed shape, never an error.
func (h *InventoryStatsHandler) GetItemInventoryStats(c *gin.Context) {
	_, storeID := adminContext(c)

	templateID, err := utils.StrToInt64(c.Param("templateId"))
	if err != nil {
		utils.RespondValidationFailed(c, "Invalid template ID")
		return
	}

	stats, err := h.statsSvc.GetItemInventoryStats(storeID, templateID)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to compute item stats", err.Error()))
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetInventoryHealthReport handles the fleet-wide health bucket report.
func (h *InventoryStatsHandler) GetInventoryHealthReport(c *gin.Context) {
	_, storeID := adminContext(c)

	var filters models.InventoryFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	report, err := h.statsSvc.GetInventoryHealthReport(storeID, filters)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build health report", err.Error()))
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetStockChangeSummary handles the per-change-type aggregation over a period.
func (h *InventoryStatsHandler) GetStockChangeSummary(c *gin.Context) {
	_, storeID := adminContext(c)

	var filters models.LedgerFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	period := c.Query("period")

	summary, err := h.statsSvc.GetStockChangeSummary(storeID, period, filters)
	if err != nil {
		if errors.Is(err, services.ErrInvalidDate) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeInvalidDate, "Invalid date or period value", err.Error()))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to summarize stock changes", err.Error()))
		return
	}
	c.JSON(http.StatusOK, summary)
}
