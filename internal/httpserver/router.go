package httpserver

import (
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"candyshop/internal/cart"
	"candyshop/internal/service/catalog"
	"candyshop/internal/service/order"
	"candyshop/internal/service/user"
)

// Deps carries the services the router wires handlers to.
type Deps struct {
	Catalog *catalog.Service
	Orders  *order.Service
	Users   *user.Service

	// CartKV is the shared cart storage backend. Each visitor's session
	// namespaces its keys, see cartHandler.
	CartKV cart.KV

	PricePolicy cart.PricePolicy

	RateLimitRPS   float64
	RateLimitBurst int
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db *pgxpool.Pool, deps Deps) (*gin.Engine, error) {
	if deps.Catalog == nil || deps.Orders == nil || deps.Users == nil {
		return nil, errors.New("httpserver: missing service dependencies")
	}
	if deps.CartKV == nil {
		return nil, errors.New("httpserver: missing cart storage")
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	corsCfg.AllowCredentials = false
	corsCfg.MaxAge = 12 * time.Hour

	router.Use(
		gin.Recovery(),
		cors.New(corsCfg),
		requestLogger(logger),
		sessionMiddleware(),
		authMiddleware(deps.Users),
	)
	if deps.RateLimitRPS > 0 {
		router.Use(newRateLimiter(deps.RateLimitRPS, deps.RateLimitBurst).middleware())
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	api := router.Group("/api")

	carts := newCartHandler(deps.CartKV, deps.PricePolicy, deps.Catalog)
	cartGroup := api.Group("/cart")
	{
		cartGroup.GET("", carts.show)
		cartGroup.GET("/subtotal", carts.subtotal)
		cartGroup.POST("/items", carts.addItem)
		cartGroup.PATCH("/items/:productId", carts.updateQuantity)
		cartGroup.POST("/items/:productId/toggle", carts.toggleSelected)
		cartGroup.DELETE("/items/:productId", carts.removeItem)
		cartGroup.DELETE("/selected", carts.removeSelected)
		cartGroup.DELETE("", carts.clear)
	}

	products := catalogHandler{svc: deps.Catalog}
	api.GET("/products", products.listProducts)
	api.GET("/products/search", products.searchByName)
	api.GET("/products/search-by-price", products.searchByPrice)
	api.GET("/products/subcategory/:id", products.bySubCategory)
	api.GET("/products/:id", products.getProduct)
	api.GET("/products/:id/price-histories", products.priceHistories)
	api.GET("/categories", products.listCategories)
	api.GET("/categories/:id", products.getCategory)
	api.GET("/categories/:id/subcategories", products.subCategories)
	api.GET("/publishers", products.listPublishers)

	users := userHandler{svc: deps.Users}
	api.POST("/users", users.signup)
	api.POST("/auth/login", users.login)
	api.POST("/auth/otp", users.requestOTP)
	api.POST("/users/:id/verify", users.verifyOTP)

	orders := orderHandler{svc: deps.Orders, cartKV: deps.CartKV, policy: deps.PricePolicy, catalog: deps.Catalog}

	authed := api.Group("", requireAuth())
	{
		authed.GET("/users/me", users.me)
		authed.GET("/users/me/addresses", users.listAddresses)
		authed.POST("/users/me/addresses", users.addAddress)
		authed.DELETE("/users/me/addresses/:addressId", users.deleteAddress)

		authed.POST("/orders", orders.checkout)
		authed.GET("/orders", orders.list)
		authed.GET("/orders/:id", orders.get)
		authed.POST("/orders/:id/cancel", orders.cancel)
	}

	admin := api.Group("", requireAuth(), requireAdmin())
	{
		admin.POST("/products", products.createProduct)
		admin.PUT("/products/:id", products.updateProduct)
		admin.DELETE("/products/:id", products.deleteProduct)

		admin.POST("/categories", products.createCategory)
		admin.PUT("/categories/:id", products.updateCategory)
		admin.DELETE("/categories/:id", products.deleteCategory)
		admin.POST("/subcategories", products.createSubCategory)
		admin.PUT("/subcategories/:id", products.updateSubCategory)
		admin.DELETE("/subcategories/:id", products.deleteSubCategory)
		admin.POST("/publishers", products.createPublisher)
		admin.DELETE("/publishers/:id", products.deletePublisher)

		admin.GET("/users", users.list)
		admin.DELETE("/users/:id", users.delete)
		admin.PUT("/orders/:id/status", orders.updateStatus)
	}

	return router, nil
}
