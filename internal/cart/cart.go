// Package cart holds a single user's shopping cart.
package cart

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Store keeps at most one line per product, in insertion order, and recomputes
// the subtotal on every mutation. All methods are safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	lines []models.CartLine
	index map[int64]int
	total decimal.Decimal
}

// NewStore returns an empty cart.
func NewStore() *Store {
	return &Store{
		index: make(map[int64]int),
		total: decimal.Zero,
	}
}

// AddItem inserts product or increments its existing line by quantity.
func (s *Store) AddItem(product models.Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("add product %d: %w", product.ID,
			errors.NewValidationError("quantity", "must be at least 1"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[product.ID]; ok {
		s.lines[i].Quantity += quantity
	} else {
		s.index[product.ID] = len(s.lines)
		s.lines = append(s.lines, models.CartLine{Product: product, Quantity: quantity})
	}
	s.recompute()
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes
// the line; products not in the cart are ignored.
func (s *Store) UpdateQuantity(productID int64, quantity int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[productID]
	if !ok {
		return
	}
	if quantity <= 0 {
		s.removeAt(i)
	} else {
		s.lines[i].Quantity = quantity
	}
	s.recompute()
}

// RemoveItem drops the line for productID, if any.
func (s *Store) RemoveItem(productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[productID]; ok {
		s.removeAt(i)
		s.recompute()
	}
}

func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.index = make(map[int64]int)
	s.total = decimal.Zero
}

// Total is the price-weighted sum of all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// ItemCount is the sum of quantities.
func (s *Store) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, l := range s.lines {
		count += l.Quantity
	}
	return count
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines) == 0
}

// Lines returns a copy of the cart lines in insertion order.
func (s *Store) Lines() []models.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Snapshot is a point-in-time copy of the cart.
type Snapshot struct {
	Lines     []models.CartLine `json:"lines"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
	ItemCount int               `json:"item_count"`
}

// Snapshot captures lines and subtotal under a single lock so both agree.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines := make([]models.CartLine, len(s.lines))
	copy(lines, s.lines)

	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return Snapshot{Lines: lines, Subtotal: s.total, ItemCount: count}
}

// Restore replaces the cart content with lines. Lines with a non-positive
// quantity are skipped and duplicate products are merged.
func (s *Store) Restore(lines []models.CartLine) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.index = make(map[int64]int)
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		if i, ok := s.index[l.Product.ID]; ok {
			s.lines[i].Quantity += l.Quantity
			continue
		}
		s.index[l.Product.ID] = len(s.lines)
		s.lines = append(s.lines, l)
	}
	s.recompute()
}

func (s *Store) removeAt(i int) {
	delete(s.index, s.lines[i].Product.ID)
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	for j := i; j < len(s.lines); j++ {
		s.index[s.lines[j].Product.ID] = j
	}
}

// recompute must be called with mu held.
func (s *Store) recompute() {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	s.total = total
}
