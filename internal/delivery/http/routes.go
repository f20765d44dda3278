package http

import (
	"github.com/gin-gonic/gin"
	"github.com/smartcart/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, tokens TokenValidator) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(BodyLimitMiddleware(cfg.Server.MaxBodyBytes))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.GET("/:id", handler.GetProduct)
			products.GET("/barcode/:barcode", handler.GetProductByBarcode)
		}

		authed := v1.Group("", AuthMiddleware(tokens))
		{
			identify := authed.Group("/identify-product")
			{
				identify.POST("", handler.IdentifyProduct)
				identify.POST("/:scanId/confirm", handler.ConfirmScan)
				identify.POST("/:scanId/cancel", handler.CancelScan)
			}

			authed.GET("/scan/state", handler.ScanState)

			cart := authed.Group("/cart")
			{
				cart.GET("", handler.GetCart)
				cart.POST("", handler.AddToCart)
				cart.DELETE("", handler.ClearCart)
				cart.PATCH("/:id", handler.UpdateCartItem)
				cart.DELETE("/:id", handler.RemoveCartItem)
			}
		}

		if cfg.IsDevelopment() {
			v1.POST("/dev/token", handler.IssueDevToken)
		}
	}

	return router
}
