package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// MemoryOrderRepository keeps orders in process memory. Used when the
// persistent store is disabled and in tests.
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]*models.Order)}
}

func (r *MemoryOrderRepository) Create(ctx context.Context, order *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[order.ID]; ok {
		return fmt.Errorf("order %s: %w", order.ID, ErrDuplicateOrder)
	}
	r.orders[order.ID] = copyOrder(order)
	return nil
}

func (r *MemoryOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, errors.ErrNotFound)
	}
	return copyOrder(order), nil
}

func (r *MemoryOrderRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			all = append(all, copyOrder(o))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []*models.Order{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *MemoryOrderRepository) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, paymentID, detail string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, errors.ErrNotFound)
	}

	order.Status = status
	if paymentID != "" {
		order.PaymentID = paymentID
	}
	order.StatusDetail = detail
	order.UpdatedAt = time.Now().UTC()
	return copyOrder(order), nil
}

func copyOrder(o *models.Order) *models.Order {
	cp := *o
	cp.Items = make([]models.CartLine, len(o.Items))
	copy(cp.Items, o.Items)
	return &cp
}
