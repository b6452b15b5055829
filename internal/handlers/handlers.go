// Package handlers exposes the storefront services over HTTP with gin.
package handlers

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/catalog"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/service"
)

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

// Handlers holds all HTTP handlers for the storefront service.
type Handlers struct {
	catalog   *catalog.Catalog
	auth      *service.AuthService
	carts     *service.CartService
	favorites *service.FavoriteService
	checkout  *service.CheckoutService
	orders    *service.OrderService
	checks    map[string]ReadinessCheck
	logger    *logging.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(
	cat *catalog.Catalog,
	authService *service.AuthService,
	cartService *service.CartService,
	favoriteService *service.FavoriteService,
	checkoutService *service.CheckoutService,
	orderService *service.OrderService,
	logger *logging.Logger,
) *Handlers {
	return &Handlers{
		catalog:   cat,
		auth:      authService,
		carts:     cartService,
		favorites: favoriteService,
		checkout:  checkoutService,
		orders:    orderService,
		checks:    make(map[string]ReadinessCheck),
		logger:    logger,
	}
}

// AddReadinessCheck registers a dependency probed by GET /ready.
func (h *Handlers) AddReadinessCheck(name string, check ReadinessCheck) {
	h.checks[name] = check
}
