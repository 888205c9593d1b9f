// Package router registers the portal's routes. Each role gets its own
// group under /v1 behind the session and role middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/apartment-portal/internal/config"
	"github.com/iliyamo/apartment-portal/internal/handler"
	"github.com/iliyamo/apartment-portal/internal/middleware"
	"github.com/iliyamo/apartment-portal/internal/model"
)

// Options carries the Redis-backed middleware settings. A nil Redis client
// disables rate limiting and response caching.
type Options struct {
	Redis     *redis.Client
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// RegisterRoutes registers routes that need no session.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers login, logout and the profile routes.
func RegisterAuth(e *echo.Echo, d *handler.Deps, opt Options) {
	a := handler.NewAuthHandler(d)

	loginLimit := opt.RateLimit
	loginLimit.Capacity = opt.RateLimit.LoginCapacity
	loginLimit.Prefix = opt.RateLimit.Prefix + ":login"
	loginLimit.KeyStrategy = "ip"

	g := e.Group("/v1/auth")
	g.POST("/login", a.Login, middleware.NewTokenBucket(loginLimit, opt.Redis, d.Cookie.Name))

	authed := g.Group("", middleware.Session(d.Sessions, d.Cookie))
	authed.POST("/logout", a.Logout)
	authed.GET("/me", a.Me)
	authed.PUT("/change-password", a.ChangePassword)
}

// group returns a /v1/<prefix> group for role with the shared middleware
// chain: session, role gate, rate limit.
func group(e *echo.Echo, prefix, role string, d *handler.Deps, opt Options) *echo.Group {
	return e.Group("/v1/"+prefix,
		middleware.Session(d.Sessions, d.Cookie),
		middleware.RequireRole(role),
		middleware.NewTokenBucket(opt.RateLimit, opt.Redis, d.Cookie.Name),
	)
}

// RegisterAdmin registers the admin dashboard: bills, reference data,
// maintenance and leave review.
func RegisterAdmin(e *echo.Echo, d *handler.Deps, opt Options) {
	g := group(e, "admin", model.RoleAdmin, d, opt)
	// Cached reads are per user; a write through the same middleware purges
	// every user's entries. Pages that show bills are never cached.
	cache := middleware.NewRedisCache(opt.Cache, opt.Redis)

	g.GET("/dashboard", handler.NewDashboardHandler(d).Show)

	b := handler.NewBillHandler(d)
	g.GET("/bills", b.List)
	g.POST("/bills", b.Create, cache)
	g.POST("/bills/preview", b.Preview)
	g.GET("/bills/export", b.Export)
	g.GET("/bills/:id", b.Get)
	g.PUT("/bills/:id", b.Update, cache)
	g.PUT("/bills/:id/pay", b.Pay, cache)
	g.DELETE("/bills/:id", b.Delete, cache)
	g.GET("/bills/:id/history", b.History)

	apartments := handler.NewApartmentHandler(d)
	g.GET("/apartments", apartments.List, cache)
	g.GET("/apartments/:id", apartments.Get)
	g.POST("/apartments", apartments.Create, cache)
	g.PUT("/apartments/:id", apartments.Update, cache)
	g.DELETE("/apartments/:id", apartments.Delete, cache)

	tenants := handler.NewTenantHandler(d)
	g.GET("/tenants", tenants.List, cache)
	g.GET("/tenants/:id", tenants.Get)
	g.POST("/tenants", tenants.Create, cache)
	g.PUT("/tenants/:id", tenants.Update, cache)
	g.DELETE("/tenants/:id", tenants.Delete, cache)

	beverages := handler.NewBeverageHandler(d)
	g.GET("/beverages", beverages.List, cache)
	g.GET("/beverages/:id", beverages.Get)
	g.POST("/beverages", beverages.Create, cache)
	g.PUT("/beverages/:id", beverages.Update, cache)
	g.DELETE("/beverages/:id", beverages.Delete, cache)

	m := handler.NewMaintenanceHandler(d)
	g.GET("/maintenance", m.ListAll)
	g.PUT("/maintenance/:id/assign", m.Assign, cache)
	g.PUT("/maintenance/:id/status", m.UpdateStatus, cache)
	g.DELETE("/maintenance/:id", m.Delete, cache)

	l := handler.NewLeaveHandler(d)
	g.GET("/leave", l.ListAll)
	g.PUT("/leave/:id", l.Review, cache)
}

// RegisterMaintenance registers the maintenance worker dashboard.
func RegisterMaintenance(e *echo.Echo, d *handler.Deps, opt Options) {
	g := group(e, "maintenance", model.RoleMaintenance, d, opt)

	g.GET("/dashboard", handler.NewDashboardHandler(d).Show)

	m := handler.NewMaintenanceHandler(d)
	g.GET("/requests", m.ListAssigned)
	g.PUT("/requests/:id/status", m.UpdateStatus)

	l := handler.NewLeaveHandler(d)
	g.GET("/leave", l.ListMine)
	g.POST("/leave", l.Submit)
}

// RegisterTenant registers the tenant dashboard.
func RegisterTenant(e *echo.Echo, d *handler.Deps, opt Options) {
	g := group(e, "tenant", model.RoleTenant, d, opt)

	g.GET("/dashboard", handler.NewDashboardHandler(d).Show)
	g.GET("/bills", handler.NewBillHandler(d).Mine)

	m := handler.NewMaintenanceHandler(d)
	g.GET("/maintenance", m.ListMine)
	g.POST("/maintenance", m.Open)
}

// Register wires every route group on e.
func Register(e *echo.Echo, d *handler.Deps, opt Options) {
	RegisterRoutes(e)
	RegisterAuth(e, d, opt)
	RegisterAdmin(e, d, opt)
	RegisterMaintenance(e, d, opt)
	RegisterTenant(e, d, opt)
}
