package handlers

import (
	"net/http"

	"resto_ops_backend/internal/models"
	"resto_ops_backend/internal/services"
	"resto_ops_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// DeliveryOrderHandler exposes the resolver to the order pipeline and the
// delivery-platform webhook handlers. These endpoints never leak raw error
// kinds to order-facing callers: stock problems surface as a coarse
// "stock unavailable" condition plus the offending item names.
type DeliveryOrderHandler struct {
	resolver services.OrderInventoryService
}

// NewDeliveryOrderHandler creates a new DeliveryOrderHandler.
func NewDeliveryOrderHandler(r services.OrderInventoryService) *DeliveryOrderHandler {
	return &DeliveryOrderHandler{resolver: r}
}

// ValidateOrderInventory handles the validation call: order lines in, verdict
// plus aggregated demand map out.
func (h *DeliveryOrderHandler) ValidateOrderInventory(c *gin.Context) {
	var order models.DeliveryOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	result, err := h.resolver.ValidateDeliveryOrderInventory(&order)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Inventory validation failed", err.Error()))
		return
	}

	response := gin.H{
		"success":       result.Success,
		"inventory_map": result.InventoryMap,
		"issues":        result.Issues,
	}
	if !result.Success {
		unavailable := make([]string, 0, len(result.Issues))
		for _, issue := range result.Issues {
			unavailable = append(unavailable, issue.ItemName)
		}
		response["message"] = "Stock unavailable"
		response["unavailable_items"] = unavailable
	}
	c.JSON(http.StatusOK, response)
}

type reduceOrderInventoryRequest struct {
	Order        models.DeliveryOrder `json:"order" binding:"required"`
	InventoryMap map[int64]int        `json:"inventory_map" binding:"required"`
}

// ReduceOrderInventory handles the reduction call, invoked after a successful
// validation. Partial failures are reported, not rolled back.
func (h *DeliveryOrderHandler) ReduceOrderInventory(c *gin.Context) {
	var req reduceOrderInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	result := h.resolver.ReduceDeliveryOrderInventory(&req.Order, req.InventoryMap)
	c.JSON(http.StatusOK, result)
}

type reduceSingleItemRequest struct {
	Order       models.DeliveryOrder `json:"order" binding:"required"`
	TemplateRef string               `json:"template_ref" binding:"required"`
	Quantity    int                  `json:"quantity" binding:"required,gt=0"`
}

// ReduceSingleItem handles an ad-hoc single-template reduction outside the
// aggregate path.
func (h *DeliveryOrderHandler) ReduceSingleItem(c *gin.Context) {
	var req reduceSingleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	outcome, err := h.resolver.ReduceSingleItemForDelivery(&req.Order, req.TemplateRef, req.Quantity)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"outcome": outcome, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome})
}

// RestoreOrderInventory handles the cancellation restore. The result is
// always 200: restoration is a compensating side effect and its failure must
// not fail the caller's cancellation flow.
func (h *DeliveryOrderHandler) RestoreOrderInventory(c *gin.Context) {
	var order models.DeliveryOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}

	result := h.resolver.RestoreDeliveryOrderInventory(&order)
	c.JSON(http.StatusOK, result)
}

// CheckEligibility handles the eligibility predicate for the order pipeline.
func (h *DeliveryOrderHandler) CheckEligibility(c *gin.Context) {
	var order models.DeliveryOrder
	if err := c.ShouldBindJSON(&order); err != nil {
		utils.RespondValidationFailed(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"eligible": h.resolver.CanProcessInventoryForDeliveryOrder(&order)})
}
