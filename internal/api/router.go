package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/analystai/internal/api/handler"
	"github.com/timmy/analystai/internal/api/middleware"
	"github.com/timmy/analystai/internal/auth"
	"github.com/timmy/analystai/internal/logger"
	"github.com/timmy/analystai/internal/metrics"
	"github.com/timmy/analystai/internal/service"
)

// RouterDeps are the collaborators the HTTP layer needs.
type RouterDeps struct {
	ExtractionService *service.ExtractionService
	TokenValidator    auth.TokenValidator
	Metrics           *metrics.Metrics // nil disables /metrics
	Logger            *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps RouterDeps, mode string) *gin.Engine {
	// Set Gin mode
	switch mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	validator := deps.TokenValidator
	if validator == nil {
		validator = auth.NoopTokenValidator{}
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Logger))
	r.Use(middleware.CORS())
	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	extractionHandler := handler.NewExtractionHandler(deps.ExtractionService)

	// Health check
	r.GET("/health", healthHandler.Health)

	if deps.Metrics != nil {
		r.GET("/metrics", deps.Metrics.Handler())
	}

	// Extraction routes
	api := r.Group("/api", middleware.Auth(validator))
	{
		api.POST("/extract-pdf", extractionHandler.Submit)
		api.GET("/extraction-status/:task_id", extractionHandler.Status)
		api.GET("/download/:task_id", extractionHandler.Download)
	}

	return r
}
