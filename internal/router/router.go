// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/watch4deal/admin-backend/internal/config"
	"github.com/watch4deal/admin-backend/internal/handlers"
	"github.com/watch4deal/admin-backend/internal/middleware"
	"github.com/watch4deal/admin-backend/internal/panel"
	"github.com/watch4deal/admin-backend/internal/store"
	"github.com/watch4deal/admin-backend/internal/utils"
)

func Initialize(st store.RemoteStore, panels *panel.Manager, cfg *config.Config) (*gin.Engine, *handlers.CatalogHandler) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg, panels)
	panelHandler := handlers.NewPanelHandler(panels)
	catalogHandler := handlers.NewCatalogHandler(st)
	streamHandler := handlers.NewStreamHandler(panels)

	// Set JWT secret
	utils.SetJWTSecret(cfg.Auth.JWTSecret)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", middleware.AuthRequired(), authHandler.Logout)
		}

		// Public storefront reads
		v1.GET("/watches", catalogHandler.GetWatches)
		v1.GET("/testimonials", catalogHandler.GetTestimonials)

		// Admin panel routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired())
		{
			admin.GET("/panel", panelHandler.GetPanel)
			admin.PUT("/panel/tab", panelHandler.SwitchTab)
			admin.PUT("/panel/draft/field", panelHandler.SetDraftField)
			admin.POST("/panel/draft/images", middleware.UploadRateLimit(), panelHandler.UploadDraftImages)
			admin.DELETE("/panel/draft/images/:index", panelHandler.RemoveDraftImage)
			admin.POST("/panel/edit", panelHandler.Edit)
			admin.POST("/panel/submit", panelHandler.Submit)
			admin.DELETE("/records/:kind/:id", panelHandler.DeleteRecord)
			admin.GET("/stream", streamHandler.Stream)
		}
	}

	return r, catalogHandler
}
