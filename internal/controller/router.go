package controller

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/slotswap/swap_backend/internal/service"
)

type RouterConfig struct {
	Auth   *service.AuthService
	Slots  *service.SlotService
	Swaps  *service.SwapService
	Logger *zap.Logger
}

// NewRouter собирает все маршруты API
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := NewAuthHandler(cfg.Auth, cfg.Logger)
	slotHandler := NewSlotHandler(cfg.Slots, cfg.Logger)
	swapHandler := NewSwapHandler(cfg.Swaps, cfg.Logger)

	api := r.Group("/api")
	{
		// Публичные маршруты
		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/login", authHandler.Login)
	}

	protected := api.Group("/")
	protected.Use(RequireAuth(cfg.Auth))
	{
		protected.GET("/slots", slotHandler.List)
		protected.POST("/slots", slotHandler.Create)
		protected.PATCH("/slots/:id", slotHandler.Update)

		protected.GET("/marketplace", slotHandler.Marketplace)

		protected.POST("/swap-requests", swapHandler.Propose)
		protected.POST("/swap-requests/:id/respond", swapHandler.Respond)
		protected.GET("/swap-requests", swapHandler.List)
	}

	return r
}
