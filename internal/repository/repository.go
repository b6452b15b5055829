// Package repository persists orders and favorites in PostgreSQL and caches
// carts in Redis.
package repository

import (
	"context"
	"errors"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/favorites"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

var (
	// ErrCacheMiss is returned by CartCache.Get when no cart is stored.
	ErrCacheMiss = errors.New("cache miss")
	// ErrDuplicateOrder is returned when an order id is already taken.
	ErrDuplicateOrder = errors.New("order already exists")
)

// OrderRepository stores checkout orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
	// ListByUserID returns one page of the user's orders, newest first, and the total count.
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Order, int, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus, paymentID, detail string) (*models.Order, error)
}

// CartCache keeps a copy of each user's cart lines.
type CartCache interface {
	Get(ctx context.Context, userID string) ([]models.CartLine, error)
	Set(ctx context.Context, userID string, lines []models.CartLine) error
	Delete(ctx context.Context, userID string) error
}

var (
	_ OrderRepository = (*PostgresOrderRepository)(nil)
	_ OrderRepository = (*MemoryOrderRepository)(nil)
	_ favorites.Store = (*PostgresFavoriteRepository)(nil)
	_ CartCache       = (*RedisCartCache)(nil)
)
