package service

import (
	"context"
	"sync"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/cart"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/catalog"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// CartService owns one cart.Store per user. When a cache is configured the
// carts are loaded from it on first use and written back after every change.
type CartService struct {
	mu      sync.Mutex
	carts   map[string]*cart.Store
	catalog *catalog.Catalog
	cache   repository.CartCache
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewCartService creates a cart service. cache and m may be nil.
func NewCartService(cat *catalog.Catalog, cache repository.CartCache, m *metrics.Metrics, logger *logging.Logger) *CartService {
	return &CartService{
		carts:   make(map[string]*cart.Store),
		catalog: cat,
		cache:   cache,
		metrics: m,
		logger:  logger,
	}
}

// Cart returns the user's store, creating it on first access.
func (s *CartService) Cart(ctx context.Context, userID string) *cart.Store {
	s.mu.Lock()
	store, ok := s.carts[userID]
	s.mu.Unlock()
	if ok {
		return store
	}

	loaded := cart.NewStore()
	loaded.Restore(s.load(ctx, userID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if store, ok := s.carts[userID]; ok {
		return store
	}
	s.carts[userID] = loaded
	return loaded
}

// Get returns a snapshot of the user's cart.
func (s *CartService) Get(ctx context.Context, userID string) cart.Snapshot {
	return s.Cart(ctx, userID).Snapshot()
}

// AddItem adds quantity units of a catalog product.
func (s *CartService) AddItem(ctx context.Context, userID string, productID int64, quantity int) (cart.Snapshot, error) {
	if err := ValidateQuantity(quantity); err != nil {
		return cart.Snapshot{}, err
	}
	product, err := s.catalog.ByID(productID)
	if err != nil {
		return cart.Snapshot{}, err
	}

	store := s.Cart(ctx, userID)
	if err := store.AddItem(product, quantity); err != nil {
		return cart.Snapshot{}, err
	}

	s.logger.Debug("Cart item added", logging.Fields{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return s.save(ctx, userID, store), nil
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, productID int64, quantity int) (cart.Snapshot, error) {
	if _, err := s.catalog.ByID(productID); err != nil {
		return cart.Snapshot{}, err
	}

	store := s.Cart(ctx, userID)
	store.UpdateQuantity(productID, quantity)
	return s.save(ctx, userID, store), nil
}

// RemoveItem drops a line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID string, productID int64) (cart.Snapshot, error) {
	if _, err := s.catalog.ByID(productID); err != nil {
		return cart.Snapshot{}, err
	}

	store := s.Cart(ctx, userID)
	store.RemoveItem(productID)
	return s.save(ctx, userID, store), nil
}

// Clear empties the user's cart and drops the cached copy.
func (s *CartService) Clear(ctx context.Context, userID string) {
	s.Cart(ctx, userID).Clear()

	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn("Failed to delete cached cart", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}

// load reads the cached lines and refreshes each product from the catalog.
// Products no longer in the catalog are dropped.
func (s *CartService) load(ctx context.Context, userID string) []models.CartLine {
	if s.cache == nil {
		return nil
	}

	lines, err := s.cache.Get(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrCacheMiss):
		s.countCache("miss")
		return nil
	case err != nil:
		s.countCache("error")
		s.logger.Warn("Failed to load cached cart", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
		return nil
	}
	s.countCache("hit")

	fresh := make([]models.CartLine, 0, len(lines))
	for _, line := range lines {
		product, err := s.catalog.ByID(line.Product.ID)
		if err != nil {
			continue
		}
		fresh = append(fresh, models.CartLine{Product: product, Quantity: line.Quantity})
	}
	return fresh
}

func (s *CartService) save(ctx context.Context, userID string, store *cart.Store) cart.Snapshot {
	snapshot := store.Snapshot()
	if s.cache == nil {
		return snapshot
	}

	if err := s.cache.Set(ctx, userID, snapshot.Lines); err != nil {
		s.logger.Warn("Failed to cache cart", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
	return snapshot
}

func (s *CartService) countCache(result string) {
	if s.metrics != nil {
		s.metrics.CartCacheResults.WithLabelValues(result).Inc()
	}
}
