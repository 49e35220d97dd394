package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tempandmajor/commonly-sub007/internal/config"
	"github.com/tempandmajor/commonly-sub007/internal/handler/middleware"
	jwtpkg "github.com/tempandmajor/commonly-sub007/pkg/jwt"
)

func SetupRouter(
	cfg *config.Config,
	logger *zap.Logger,
	jwtManager *jwtpkg.Manager,
	promotionHandler *PromotionHandler,
	ticketHandler *TicketHandler,
	conversationHandler *ConversationHandler,
	platformHandler *PlatformHandler,
) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS))

	// Health check
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Public routes
	public := r.Group("/api/v1")
	{
		// Live estimate for the promotion-creation form
		public.POST("/promotions/estimate", promotionHandler.Estimate)
	}

	// Protected routes
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth(jwtManager))
	{
		protected.POST("/promotions", promotionHandler.Create)
		protected.GET("/promotions", promotionHandler.List)
		protected.GET("/promotions/:id", promotionHandler.Get)
		protected.GET("/credits/balance", promotionHandler.CreditBalance)

		protected.POST("/events", ticketHandler.CreateEvent)
		protected.POST("/tickets/issue", ticketHandler.Issue)
		protected.POST("/tickets/scan", ticketHandler.Scan)

		protected.POST("/conversations", conversationHandler.Start)
		protected.GET("/conversations", conversationHandler.List)
		protected.GET("/conversations/:id/messages", conversationHandler.ListMessages)
		protected.POST("/conversations/:id/messages", conversationHandler.SendMessage)
		protected.GET("/conversations/:id/stream", conversationHandler.Stream)

		protected.GET("/platform/summary", platformHandler.Summary)
	}

	// Admin routes (JWT + admin check)
	admin := r.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuth(jwtManager))
	admin.Use(middleware.AdminAuth(cfg.Admin.UserIDs))
	{
		admin.POST("/credits/grant", promotionHandler.GrantCredits)
		admin.POST("/platform/summary/refresh", platformHandler.Refresh)
	}

	return r
}
