package checkout

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Session is one checkout attempt for one user. Its fields are guarded by mu and
// read through View.
type Session struct {
	mu sync.Mutex

	id        string
	userID    string
	orderID   string
	email     string
	status    Status
	lines     []models.CartLine
	subtotal  decimal.Decimal
	freight   *models.FreightQuote
	total     decimal.Decimal
	outcome   *Outcome
	attempts  int
	createdAt time.Time
	updatedAt time.Time
}

// View is a consistent copy of a session.
type View struct {
	ID          string               `json:"id"`
	UserID      string               `json:"user_id"`
	OrderID     string               `json:"order_id"`
	Email       string               `json:"email,omitempty"`
	Status      Status               `json:"status"`
	Lines       []models.CartLine    `json:"lines,omitempty"`
	Subtotal    decimal.Decimal      `json:"subtotal"`
	Freight     *models.FreightQuote `json:"freight,omitempty"`
	Total       decimal.Decimal      `json:"total"`
	LastOutcome *Outcome             `json:"last_outcome,omitempty"`
	Attempts    int                  `json:"attempts"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

func (s *Session) ID() string { return s.id }

func (s *Session) UserID() string { return s.userID }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:        s.id,
		UserID:    s.userID,
		OrderID:   s.orderID,
		Email:     s.email,
		Status:    s.status,
		Subtotal:  s.subtotal,
		Total:     s.total,
		Attempts:  s.attempts,
		CreatedAt: s.createdAt,
		UpdatedAt: s.updatedAt,
	}
	if s.lines != nil {
		v.Lines = make([]models.CartLine, len(s.lines))
		copy(v.Lines, s.lines)
	}
	if s.freight != nil {
		q := *s.freight
		v.Freight = &q
	}
	if s.outcome != nil {
		o := *s.outcome
		v.LastOutcome = &o
	}
	return v
}

// moveTo must be called with mu held.
func (s *Session) moveTo(next Status, at time.Time) error {
	if !s.status.CanTransitionTo(next) {
		return fmt.Errorf("%s -> %s: %w", s.status, next, errors.ErrInvalidTransition)
	}
	s.status = next
	s.updatedAt = at
	return nil
}
