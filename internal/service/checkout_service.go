package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/freight"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

// CheckoutService keeps the open checkout sessions, at most one per user, and
// applies the result of each submission to the cart, the order store and the
// event stream.
type CheckoutService struct {
	mu       sync.Mutex
	sessions map[string]*checkout.Session
	byUser   map[string]string

	orchestrator *checkout.Orchestrator
	carts        *CartService
	orders       repository.OrderRepository
	publisher    events.Publisher
	metrics      *metrics.Metrics
	logger       *logging.Logger
	now          func() time.Time
}

func NewCheckoutService(
	orchestrator *checkout.Orchestrator,
	carts *CartService,
	orders repository.OrderRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	logger *logging.Logger,
) *CheckoutService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &CheckoutService{
		sessions:     make(map[string]*checkout.Session),
		byUser:       make(map[string]string),
		orchestrator: orchestrator,
		carts:        carts,
		orders:       orders,
		publisher:    publisher,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// QuoteFreight quotes shipping for a CEP and counts the quote by region.
func (s *CheckoutService) QuoteFreight(postalCode string) (*models.FreightQuote, error) {
	if err := ValidatePostalCode(postalCode); err != nil {
		return nil, err
	}
	quote, err := freight.Quote(postalCode)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.FreightQuotes.WithLabelValues(freight.Region(quote.PostalCode)).Inc()
	}
	return quote, nil
}

// StartCheckout quotes freight for postalCode and opens a session over the
// user's cart. A session the user already has open is cancelled and replaced,
// unless its payment is in flight, which refuses with ErrCheckoutInFlight.
func (s *CheckoutService) StartCheckout(ctx context.Context, auth *models.AuthSession, postalCode string) (checkout.View, error) {
	if !auth.IsAuthenticated() {
		return checkout.View{}, errors.ErrNotAuthenticated
	}
	userID := auth.User.ID

	quote, err := s.QuoteFreight(postalCode)
	if err != nil {
		return checkout.View{}, err
	}
	store := s.carts.Cart(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.sessions[s.byUser[userID]]
	if previous != nil && previous.Status().InFlight() {
		return checkout.View{}, fmt.Errorf("checkout session %s: %w", previous.ID(), errors.ErrCheckoutInFlight)
	}

	session, err := s.orchestrator.Start(auth, store, quote)
	if err != nil {
		return checkout.View{}, err
	}

	if previous != nil {
		if err := s.orchestrator.Cancel(previous); err != nil {
			return checkout.View{}, fmt.Errorf("checkout session %s: %v: %w", previous.ID(), err, errors.ErrCheckoutInFlight)
		}
		delete(s.sessions, previous.ID())
		s.logger.Info("Checkout session replaced", logging.Fields{
			"user_id":        userID,
			"previous_id":    previous.ID(),
			"new_session_id": session.ID(),
		})
	}

	s.sessions[session.ID()] = session
	s.byUser[userID] = session.ID()

	return session.View(), nil
}

// UpdateFreight requotes an open session for a new CEP.
func (s *CheckoutService) UpdateFreight(ctx context.Context, userID, sessionID, postalCode string) (checkout.View, error) {
	session, err := s.session(userID, sessionID)
	if err != nil {
		return checkout.View{}, err
	}

	quote, err := s.QuoteFreight(postalCode)
	if err != nil {
		return checkout.View{}, err
	}
	if err := s.orchestrator.SetFreight(session, quote); err != nil {
		return checkout.View{}, err
	}
	return session.View(), nil
}

// GetSession returns the user's open session. Sessions of other users are
// reported as not found.
func (s *CheckoutService) GetSession(ctx context.Context, userID, sessionID string) (checkout.View, error) {
	session, err := s.session(userID, sessionID)
	if err != nil {
		return checkout.View{}, err
	}
	return session.View(), nil
}

// SubmitPayment runs the payment for a session.
//
// Approved: the order is recorded as confirmed, the cart is cleared and the
// session closed. Pending: the order is recorded as payment_pending and the
// session closed, the cart is kept until the payment settles. Rejected or
// failed: nothing is recorded and the session stays open for a retry.
func (s *CheckoutService) SubmitPayment(ctx context.Context, userID, sessionID string, form checkout.Form) (checkout.View, checkout.Outcome, error) {
	session, err := s.session(userID, sessionID)
	if err != nil {
		return checkout.View{}, checkout.Outcome{}, err
	}

	outcome, err := s.orchestrator.Submit(ctx, session, s.carts.Cart(ctx, userID), form)
	if outcome.Kind == "" {
		return session.View(), outcome, err
	}
	if s.metrics != nil {
		s.metrics.CheckoutOutcomes.WithLabelValues(string(outcome.Kind)).Inc()
	}

	switch outcome.Kind {
	case checkout.OutcomeApproved:
		s.complete(ctx, session, models.OrderStatusConfirmed, outcome)
		s.carts.Clear(ctx, userID)
	case checkout.OutcomePending:
		s.complete(ctx, session, models.OrderStatusPaymentPending, outcome)
	default:
		s.logger.Info("Checkout kept open for retry", logging.Fields{
			"session_id": sessionID,
			"outcome":    string(outcome.Kind),
		})
		return session.View(), outcome, err
	}

	view := session.View()
	s.logger.Info("Checkout completed", logging.Fields{
		"session_id": sessionID,
		"order_id":   view.OrderID,
		"outcome":    string(outcome.Kind),
		"total":      view.Total.StringFixed(2),
	})
	return view, outcome, nil
}

// CancelCheckout closes a session that has no final answer and forgets it.
func (s *CheckoutService) CancelCheckout(ctx context.Context, userID, sessionID string) error {
	session, err := s.session(userID, sessionID)
	if err != nil {
		return err
	}
	if err := s.orchestrator.Cancel(session); err != nil {
		return err
	}
	s.forget(sessionID)
	return nil
}

// complete records the order, publishes order.created and closes the session.
// The payment already went through, so persistence and publish failures are
// logged instead of returned.
func (s *CheckoutService) complete(ctx context.Context, session *checkout.Session, status models.OrderStatus, outcome checkout.Outcome) {
	order := s.buildOrder(session.View(), status, outcome)

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("Failed to record order", logging.Fields{
			"order_id":   order.ID,
			"payment_id": outcome.PaymentID,
			"error":      err.Error(),
		})
	}

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.Error("Failed to publish order created event", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}

	if err := s.orchestrator.Close(session); err != nil {
		s.logger.Warn("Failed to close checkout session", logging.Fields{
			"session_id": session.ID(),
			"error":      err.Error(),
		})
	}
	s.forget(session.ID())
}

func (s *CheckoutService) buildOrder(view checkout.View, status models.OrderStatus, outcome checkout.Outcome) *models.Order {
	now := s.now().UTC()
	order := &models.Order{
		ID:           view.OrderID,
		UserID:       view.UserID,
		Status:       status,
		Items:        view.Lines,
		Subtotal:     view.Subtotal,
		Total:        view.Total,
		Currency:     models.DefaultCurrency,
		PaymentID:    outcome.PaymentID,
		StatusDetail: outcome.StatusDetail,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if view.Freight != nil {
		totals := CalculateOrderTotal(view.Subtotal, view.Freight.Price)
		order.Freight = totals.Freight
		order.Total = totals.Total
		order.PostalCode = freight.FormatCEP(view.Freight.PostalCode)
	}
	return order
}

func (s *CheckoutService) session(userID, sessionID string) (*checkout.Session, error) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	s.mu.Unlock()

	if !ok || session.UserID() != userID {
		return nil, fmt.Errorf("checkout session %s: %w", sessionID, errors.ErrNotFound)
	}
	return session, nil
}

func (s *CheckoutService) forget(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if session, ok := s.sessions[sessionID]; ok && s.byUser[session.UserID()] == sessionID {
		delete(s.byUser, session.UserID())
	}
	delete(s.sessions, sessionID)
}
