package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// PostgresFavoriteRepository implements favorites.Store on the favorites table.
type PostgresFavoriteRepository struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewPostgresFavoriteRepository(db *sql.DB, logger *logging.Logger) *PostgresFavoriteRepository {
	return &PostgresFavoriteRepository{db: db, logger: logger}
}

// Add inserts the pair if missing and returns the stored row either way.
func (r *PostgresFavoriteRepository) Add(ctx context.Context, userID string, productID int64) (*models.Favorite, error) {
	query := `
		WITH inserted AS (
			INSERT INTO favorites (user_id, product_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, product_id) DO NOTHING
			RETURNING user_id, product_id, created_at
		)
		SELECT user_id, product_id, created_at FROM inserted
		UNION ALL
		SELECT user_id, product_id, created_at FROM favorites WHERE user_id = $1 AND product_id = $2
		LIMIT 1
	`

	var fav models.Favorite
	err := r.db.QueryRowContext(ctx, query, userID, productID).Scan(&fav.UserID, &fav.ProductID, &fav.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to add favorite", logging.Fields{
			"user_id":    userID,
			"product_id": productID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return &fav, nil
}

func (r *PostgresFavoriteRepository) Remove(ctx context.Context, userID string, productID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1 AND product_id = $2`, userID, productID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

func (r *PostgresFavoriteRepository) IsFavorited(ctx context.Context, userID string, productID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND product_id = $2)`,
		userID, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return exists, nil
}

func (r *PostgresFavoriteRepository) ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, product_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC, product_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Favorite, 0)
	for rows.Next() {
		var fav models.Favorite
		if err := rows.Scan(&fav.UserID, &fav.ProductID, &fav.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &fav)
	}
	return out, rows.Err()
}

func (r *PostgresFavoriteRepository) Clear(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM favorites WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}

	removed, _ := result.RowsAffected()
	r.logger.Info("Favorites cleared", logging.Fields{"user_id": userID, "removed": removed})
	return nil
}
