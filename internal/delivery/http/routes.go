package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/macrolens/scanner/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.ListProducts)
			products.POST("", handler.AddProduct)
			products.GET("/:barcode", handler.ResolveProduct)
		}

		v1.POST("/sync", handler.Sync)
		v1.GET("/connectivity", handler.Connectivity)
		v1.GET("/stats", handler.Stats)
		v1.GET("/history", handler.History)

		profile := v1.Group("/profile")
		{
			profile.GET("/allergens", handler.GetAllergens)
			profile.PUT("/allergens", handler.SetAllergens)
		}
	}

	return router
}
