package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/catalog"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/favorites"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// FavoriteItem is a favorite joined with its catalog product.
type FavoriteItem struct {
	models.Favorite
	Product models.Product `json:"product"`
}

// FavoriteService checks product ids against the catalog before touching the store.
type FavoriteService struct {
	store   favorites.Store
	catalog *catalog.Catalog
	logger  *logging.Logger
}

func NewFavoriteService(store favorites.Store, cat *catalog.Catalog, logger *logging.Logger) *FavoriteService {
	return &FavoriteService{store: store, catalog: cat, logger: logger}
}

// Add marks a product. Adding an existing favorite returns it unchanged.
func (s *FavoriteService) Add(ctx context.Context, userID string, productID int64) (*models.Favorite, error) {
	if _, err := s.catalog.ByID(productID); err != nil {
		return nil, err
	}

	fav, err := s.store.Add(ctx, userID, productID)
	if err != nil {
		s.logger.Error("Failed to add favorite", logging.Fields{
			"user_id":    userID,
			"product_id": productID,
			"error":      err.Error(),
		})
		return nil, err
	}
	return fav, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID string, productID int64) error {
	if _, err := s.catalog.ByID(productID); err != nil {
		return err
	}
	return s.store.Remove(ctx, userID, productID)
}

func (s *FavoriteService) IsFavorited(ctx context.Context, userID string, productID int64) (bool, error) {
	return s.store.IsFavorited(ctx, userID, productID)
}

// List returns the user's favorites, newest first. Favorites whose product
// left the catalog are skipped.
func (s *FavoriteService) List(ctx context.Context, userID string) ([]FavoriteItem, error) {
	favs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]FavoriteItem, 0, len(favs))
	for _, f := range favs {
		product, err := s.catalog.ByID(f.ProductID)
		if err != nil {
			continue
		}
		items = append(items, FavoriteItem{Favorite: *f, Product: product})
	}
	return items, nil
}
