package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing
	"github.com/redis/go-redis/v9"

	"github.com/juliovp13-web/SafeZone/internal/handler"    // handlers implementing the endpoints
	"github.com/juliovp13-web/SafeZone/internal/middleware" // JWT / admin / rate-limit middleware
)

// Handlers groups everything the router wires up. The server builds it
// once in main and hands it over.
type Handlers struct {
	Auth  *handler.AuthHandler
	Subs  *handler.SubscriptionHandler
	Alert *handler.AlertHandler
	Help  *handler.HelpHandler
	Admin *handler.AdminHandler
	Rates *handler.RatesHandler
}

// Register wires every route. All application endpoints live under
// /api; login and register are the only unauthenticated ones, matching
// the mobile client's expectations. Admin routes stack RequireAdmin on
// top of JWTAuth.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	// Liveness probe for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	api := e.Group("/api")
	api.GET("", handler.Root)

	// Unauthenticated: account creation and credential exchange.
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)

	// Everything else requires a bearer token.
	auth := api.Group("", middleware.JWTAuth(jwtSecret))
	auth.GET("/profile", h.Auth.Profile)

	auth.POST("/create-subscription", h.Subs.Create)
	auth.GET("/subscription-status", h.Subs.Status)
	auth.POST("/confirm-payment", h.Subs.ConfirmPayment)
	auth.POST("/cancel-subscription", h.Subs.Cancel)

	// Alert posting carries a per-user rate limit: the client re-POSTs
	// an active alert every few seconds by design.
	auth.POST("/alerts", h.Alert.Create, middleware.RateLimit(middleware.DefaultAlertRateLimit(), rdb))
	auth.GET("/alerts", h.Alert.List)
	auth.PUT("/alerts/:id/stop", h.Alert.Stop)
	auth.GET("/emergency-notifications", h.Alert.Notifications)

	auth.POST("/help", h.Help.Send)
	auth.GET("/rates", h.Rates.Get)

	// Administrative surface.
	admin := auth.Group("/admin", middleware.RequireAdmin())
	admin.GET("/stats", h.Admin.Stats)
	admin.GET("/users", h.Admin.ListUsers)
	admin.GET("/help-messages", h.Admin.ListHelpMessages)
	admin.PUT("/help-messages/:id/respond", h.Admin.RespondHelpMessage)
	admin.POST("/set-admin", h.Admin.SetAdmin)
}
