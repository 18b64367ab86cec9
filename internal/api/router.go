package api

import (
	"github.com/gin-gonic/gin"
	"github.com/voyago/tripcraft/internal/api/journeys"
	"github.com/voyago/tripcraft/internal/api/middleware"
	"github.com/voyago/tripcraft/internal/service"
)

// RouterConfig holds configuration for the router
type RouterConfig struct {
	APIKey       string
	AllowOrigins []string
}

// SetupRouter sets up the Gin router
func SetupRouter(
	journeyService *service.JourneyService,
	generationService *service.GenerationService,
	cfg RouterConfig,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middleware.RequestID())
	r.Use(middleware.CORS(cfg.AllowOrigins))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Journey + generation API (requires API key)
	handler := journeys.NewHandler(journeyService, generationService)
	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.Auth(cfg.APIKey))
	handler.RegisterRoutes(apiGroup)

	return r
}
