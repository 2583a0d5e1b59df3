// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Nick0086/ManageSphere-sub000/internal/config"
	"github.com/Nick0086/ManageSphere-sub000/internal/handler"
	"github.com/Nick0086/ManageSphere-sub000/internal/middleware"
)

// Handlers bundles every handler the router wires up.
type Handlers struct {
	Auth    *handler.AuthHandler
	Invoice *handler.InvoiceHandler
	Menu    *handler.MenuHandler
	Table   *handler.TableHandler
	Order   *handler.OrderHandler
	Public  *handler.PublicHandler
}

// Register wires all routes onto the Echo instance. Unauthenticated
// operations live under /v1/auth and /v1/client; everything else sits behind
// the cookie gate under /v1.
func Register(e *echo.Echo, h Handlers, gateCfg middleware.AuthGateConfig, sessions middleware.SessionLookup, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	gate := middleware.AuthGate(gateCfg, sessions)

	// Credential endpoints sit behind a per-client token bucket so password
	// and OTP guessing burns the bucket instead of the database.
	auth := e.Group("/v1/auth")
	if rdb != nil {
		auth.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	}
	auth.POST("/user/register", h.Auth.Register)
	auth.POST("/user/check", h.Auth.CheckUser)
	auth.POST("/user/verify-password", h.Auth.VerifyPassword)
	auth.POST("/user/send-otp", h.Auth.SendOTP)
	auth.POST("/user/verify-otp", h.Auth.VerifyOTP)
	auth.GET("/password/forgot/:email", h.Auth.ForgotPassword)
	auth.POST("/password/reset", h.Auth.ResetPassword)
	auth.GET("/password/check-reset-token/:token", h.Auth.CheckResetToken)
	auth.GET("/session/active", h.Auth.SessionActive, gate)
	auth.GET("/session/logout", h.Auth.Logout, gate)

	// Customer-facing routes reached via a table's QR sticker. Menu reads are
	// cached briefly in Redis; order submission is not.
	client := e.Group("/v1/client")
	if rdb != nil {
		client.GET("/:qrCode/menu", h.Public.ViewMenu,
			middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		client.GET("/:qrCode/menu", h.Public.ViewMenu)
	}
	client.POST("/:qrCode/orders", h.Order.Submit)

	// Everything below requires a valid session cookie pair.
	inv := e.Group("/v1/invoice", gate)
	inv.POST("", h.Invoice.Create)
	inv.GET("", h.Invoice.List)
	inv.GET("/items", h.Invoice.ListWithItems)
	inv.GET("/items/:templateId", h.Invoice.DetailWithItems)
	inv.GET("/:templateId", h.Invoice.Detail)
	inv.PUT("/:templateId", h.Invoice.Update)
	inv.PUT("/default/:templateId", h.Invoice.SetDefault)

	menu := e.Group("/v1/menu", gate)
	menu.POST("/categories", h.Menu.CreateCategory)
	menu.GET("/categories", h.Menu.ListCategories)
	menu.PUT("/categories/:categoryId", h.Menu.UpdateCategory)
	menu.DELETE("/categories/:categoryId", h.Menu.DeleteCategory)
	menu.POST("/items", h.Menu.CreateItem)
	menu.GET("/items", h.Menu.ListItems)
	menu.PUT("/items/:itemId", h.Menu.UpdateItem)
	menu.DELETE("/items/:itemId", h.Menu.DeleteItem)

	tables := e.Group("/v1/table", gate)
	tables.POST("", h.Table.Create)
	tables.GET("", h.Table.List)
	tables.PUT("/:tableId", h.Table.Update)
	tables.DELETE("/:tableId", h.Table.Delete)

	orders := e.Group("/v1/order", gate)
	orders.GET("", h.Order.List)
	orders.GET("/:orderId", h.Order.Detail)
	orders.PUT("/:orderId/status", h.Order.UpdateStatus)
}
