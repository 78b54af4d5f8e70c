package router

import (
	"database/sql"

	"resto_ops_backend/internal/handlers"
	"resto_ops_backend/internal/middleware"
	"resto_ops_backend/internal/repositories"
	"resto_ops_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	inventoryRepo := repositories.NewInventoryRepository(db)
	ledgerRepo := repositories.NewStockLedgerRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	adminRepo := repositories.NewAdminRepository(db)

	// Initialize Services
	mutationSvc := services.NewStockMutationService(inventoryRepo, ledgerRepo, menuRepo, repositories.NewTxManager(db))
	resolverSvc := services.NewOrderInventoryService(inventoryRepo, menuRepo, mutationSvc)
	statsSvc := services.NewStockStatsService(inventoryRepo, ledgerRepo)
	authSvc := services.NewAuthService(adminRepo)

	// Initialize Handlers
	inventoryHandler := handlers.NewInventoryHandler(mutationSvc, inventoryRepo)
	statsHandler := handlers.NewInventoryStatsHandler(statsSvc)
	deliveryHandler := handlers.NewDeliveryOrderHandler(resolverSvc)
	authHandler := handlers.NewAuthHandler(authSvc)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupAuthRoutes(apiV1, authHandler)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupInventoryRoutes(authenticated, inventoryHandler)
		SetupInventoryStatsRoutes(authenticated, statsHandler)
		SetupDeliveryOrderRoutes(authenticated, deliveryHandler)
	}
}
