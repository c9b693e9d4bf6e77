// Package httpapi exposes the order store over HTTP/JSON with gin.
//
//	GET    /health
//	GET    /orders              every order (admin)
//	GET    /orders?scope=<dev>  orders owned by one device
//	POST   /orders              create
//	PATCH  /orders/:id/status   {"status": "..."} (admin)
//	DELETE /orders/:id          (admin)
package httpapi

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/ordersync/internal/logging"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

// OrderStore is the service surface the handlers need.
type OrderStore interface {
	List(ctx context.Context, deviceScope *string) ([]models.Order, error)
	Create(ctx context.Context, order models.Order, callerDevice string) (models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) (models.Order, error)
	Delete(ctx context.Context, id string) error
}

// HealthFunc reports whether the store's backing storage is usable.
type HealthFunc func(ctx context.Context) error

type RouterDeps struct {
	Orders    OrderStore
	Health    HealthFunc
	JWTSecret string
	Logger    logging.Logger
}

type handler struct {
	orders OrderStore
	health HealthFunc
	log    logging.Logger
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger))

	h := &handler{orders: deps.Orders, health: deps.Health, log: deps.Logger}
	authn := Authenticate([]byte(deps.JWTSecret))
	admin := RequireAdmin()

	r.GET("/health", h.healthCheck)

	orders := r.Group("/orders", authn)
	orders.GET("", h.listOrders)
	orders.POST("", h.createOrder)
	orders.PATCH("/:id/status", admin, h.updateStatus)
	orders.DELETE("/:id", admin, h.deleteOrder)

	return r
}

func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
