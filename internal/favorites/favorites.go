// Package favorites tracks which products each user has marked.
package favorites

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Store is implemented by the in-memory Memory store and the Postgres repository.
type Store interface {
	// Add is idempotent on (userID, productID) and returns the stored favorite.
	Add(ctx context.Context, userID string, productID int64) (*models.Favorite, error)
	Remove(ctx context.Context, userID string, productID int64) error
	IsFavorited(ctx context.Context, userID string, productID int64) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error)
	Clear(ctx context.Context, userID string) error
}

type key struct {
	userID    string
	productID int64
}

// Memory is a process-local Store.
type Memory struct {
	mu    sync.RWMutex
	items map[key]*models.Favorite
	now   func() time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		items: make(map[key]*models.Favorite),
		now:   time.Now,
	}
}

func (m *Memory) Add(ctx context.Context, userID string, productID int64) (*models.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{userID, productID}
	if fav, ok := m.items[k]; ok {
		cp := *fav
		return &cp, nil
	}

	fav := &models.Favorite{UserID: userID, ProductID: productID, CreatedAt: m.now().UTC()}
	m.items[k] = fav
	cp := *fav
	return &cp, nil
}

func (m *Memory) Remove(ctx context.Context, userID string, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key{userID, productID})
	return nil
}

func (m *Memory) IsFavorited(ctx context.Context, userID string, productID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.items[key{userID, productID}]
	return ok, nil
}

// ListByUser returns the user's favorites, newest first.
func (m *Memory) ListByUser(ctx context.Context, userID string) ([]*models.Favorite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.Favorite, 0)
	for k, fav := range m.items {
		if k.userID != userID {
			continue
		}
		cp := *fav
		out = append(out, &cp)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.items {
		if k.userID == userID {
			delete(m.items, k)
		}
	}
	return nil
}
