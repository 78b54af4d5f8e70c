package router

import (
	"resto_ops_backend/internal/handlers"
	"resto_ops_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the public authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
	}
}

// SetupInventoryRoutes sets up the admin inventory mutation and read routes.
func SetupInventoryRoutes(authenticatedGroup *gin.RouterGroup, h *handlers.InventoryHandler) {
	inventoryRoutes := authenticatedGroup.Group("/inventory")
	inventoryRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager"))
	{
		inventoryRoutes.GET("/records", h.GetInventoryRecords)
		inventoryRoutes.GET("/records/:id", h.GetInventoryRecordByID)
		inventoryRoutes.POST("/records/:id/reduce", h.ReduceStock)
		inventoryRoutes.POST("/records/:id/add", h.AddStock)
		inventoryRoutes.POST("/records/:id/damage", h.ProcessDamage)
		inventoryRoutes.PUT("/records/:id/available-stock", h.SetAvailableStock)
		inventoryRoutes.PATCH("/records/:id/sold-out", h.ToggleSoldOut)
		inventoryRoutes.POST("/initialize", h.InitializeInventory)
		inventoryRoutes.POST("/bulk-update", h.BulkUpdateInventory)
	}
}

// SetupInventoryStatsRoutes sets up the read-only statistics routes.
func SetupInventoryStatsRoutes(authenticatedGroup *gin.RouterGroup, h *handlers.InventoryStatsHandler) {
	statsRoutes := authenticatedGroup.Group("/inventory")
	statsRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Manager"))
	{
		statsRoutes.GET("/logs", h.GetInventoryLogs)
		statsRoutes.GET("/templates/:templateId/stats", h.GetItemInventoryStats)
		statsRoutes.GET("/health", h.GetInventoryHealthReport)
		statsRoutes.GET("/change-summary", h.GetStockChangeSummary)
	}
}

// SetupDeliveryOrderRoutes sets up the resolver endpoints consumed by the
// order pipeline and delivery-platform webhook handlers. Webhook signature
// verification is owned by the webhook layer, so these sit behind the same
// service auth as the rest of the API.
func SetupDeliveryOrderRoutes(authenticatedGroup *gin.RouterGroup, h *handlers.DeliveryOrderHandler) {
	deliveryRoutes := authenticatedGroup.Group("/delivery/orders")
	{
		deliveryRoutes.POST("/validate-inventory", h.ValidateOrderInventory)
		deliveryRoutes.POST("/reduce-inventory", h.ReduceOrderInventory)
		deliveryRoutes.POST("/reduce-item", h.ReduceSingleItem)
		deliveryRoutes.POST("/restore-inventory", h.RestoreOrderInventory)
		deliveryRoutes.POST("/eligibility", h.CheckEligibility)
	}
}
