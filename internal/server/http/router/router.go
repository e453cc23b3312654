package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/scribemart/internal/config"
	"github.com/polkiloo/scribemart/internal/domain/model"
	"github.com/polkiloo/scribemart/internal/server/http/handlers"
	"github.com/polkiloo/scribemart/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.MarketplaceFacade, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade, cfg.Currency)
	walletHandler := handlers.NewWalletHandler(facade)
	adminHandler := handlers.NewAdminHandler(facade)

	api := engine.Group("/api")
	api.POST("/users/register", authHandler.Register)
	api.POST("/users/login", authHandler.Login)
	api.POST("/orders/guest", orderHandler.CreateGuest)
	api.GET("/orders/guest", orderHandler.GuestLookup)
	api.GET("/pricing/quote", orderHandler.Quote)
	api.GET("/writers/:id/stats", walletHandler.Stats)

	authed := api.Group("")
	authed.Use(middleware.AuthRequired(facade))

	orders := authed.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("", orderHandler.List)
	orders.GET("/available", orderHandler.Available)
	orders.POST("/link", orderHandler.Link)
	orders.GET("/:id", orderHandler.Get)
	orders.GET("/:id/timeline", orderHandler.Timeline)
	orders.POST("/:id/bids", orderHandler.Bid)
	orders.DELETE("/:id/bids", orderHandler.WithdrawBid)
	orders.POST("/:id/assign", orderHandler.Assign)
	orders.POST("/:id/take", orderHandler.Take)
	orders.POST("/:id/start", orderHandler.Start)
	orders.POST("/:id/submissions", orderHandler.Submit)
	orders.POST("/:id/submissions/:sid/recheck", orderHandler.Recheck)
	orders.POST("/:id/revision", orderHandler.Revision)
	orders.POST("/:id/complete", orderHandler.Complete)
	orders.POST("/:id/cancel", orderHandler.Cancel)
	orders.POST("/:id/pay", orderHandler.Pay)

	wallet := authed.Group("/wallet")
	wallet.GET("/balance", walletHandler.Balance)
	wallet.POST("/withdrawals", walletHandler.Withdraw)
	wallet.GET("/payments", walletHandler.Payments)

	adminGroup := authed.Group("/admin")
	adminGroup.Use(middleware.RequireRole(model.RoleAdmin))
	adminGroup.POST("/users/:id/status", authHandler.SetStatus)
	adminGroup.GET("/withdrawals", adminHandler.Withdrawals)
	adminGroup.POST("/withdrawals/:id/approve", adminHandler.Approve)
	adminGroup.POST("/withdrawals/:id/reject", adminHandler.Reject)
	adminGroup.POST("/payments/:id/refund", adminHandler.Refund)

	return engine
}
