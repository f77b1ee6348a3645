// Package http содержит внешний JSON API витрины на gin.
package http

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/health"
)

// Handlers собирает обработчики маршрутов.
type Handlers struct {
	Orders  *OrderHandler
	Catalog *CatalogHandler
	Cart    *CartHandler
	Account *AccountHandler
}

// NewRouter собирает роутер витрины.
func NewRouter(h Handlers, auth *Auth, healthHandler *health.Handler, logger *log.Entry) *gin.Engine {
	if logger == nil {
		logger = log.WithField("component", "http")
	}

	r := gin.New()
	r.Use(gin.Recovery(), Logging(logger))

	r.GET("/healthz", gin.WrapH(healthHandler))
	r.GET("/livez", gin.WrapF(health.LivenessHandler))
	r.GET("/readyz", gin.WrapF(healthHandler.ReadinessHandler))

	v1 := r.Group("/v1")

	// Публичная витрина.
	v1.GET("/products", h.Catalog.ListProducts)
	v1.GET("/products/search", h.Catalog.SearchProducts)
	v1.GET("/products/:id", h.Catalog.GetProduct)
	v1.GET("/categories", h.Catalog.ListCategories)
	v1.GET("/orders/track/:number", h.Orders.Track)

	// Операции владельца.
	user := v1.Group("", auth.Require())
	{
		user.GET("/cart", h.Cart.Get)
		user.PUT("/cart", h.Cart.Upsert)
		user.DELETE("/cart", h.Cart.Clear)
		user.DELETE("/cart/:productId", h.Cart.Remove)

		user.GET("/addresses", h.Account.ListAddresses)
		user.POST("/addresses", h.Account.CreateAddress)
		user.DELETE("/addresses/:id", h.Account.DeleteAddress)

		user.GET("/profile", h.Account.GetProfile)
		user.PUT("/profile", h.Account.UpdateProfile)

		user.POST("/orders", h.Orders.CreateOrder)
		user.GET("/orders", h.Orders.ListOwn)
		user.GET("/orders/:id", h.Orders.Get)
		user.POST("/orders/:id/cancel", h.Orders.Cancel)
	}

	// Админские операции. Роль проверяет policy внутри сервисов, middleware
	// гарантирует только аутентификацию.
	admin := v1.Group("/admin", auth.Require())
	{
		admin.GET("/orders", h.Orders.ListAll)
		admin.PATCH("/orders/:id/status", h.Orders.UpdateStatus)

		admin.POST("/products", h.Catalog.CreateProduct)
		admin.PUT("/products/:id", h.Catalog.UpdateProduct)
		admin.DELETE("/products/:id", h.Catalog.DeleteProduct)

		admin.POST("/categories", h.Catalog.CreateCategory)
		admin.PUT("/categories/:id", h.Catalog.UpdateCategory)
		admin.DELETE("/categories/:id", h.Catalog.DeleteCategory)
	}

	return r
}
