// Package checkout drives a payment session from card collection through
// tokenization and authorization.
//
// The orchestrator never mutates the cart. Callers act on the outcome:
// clear the cart after an approval, keep it after a pending answer, and keep
// the session open after a rejection or failure so the payer can retry.
package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/cart"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// Orchestrator runs sessions against a Gateway.
type Orchestrator struct {
	gateway Gateway
	logger  *logging.Logger
	now     func() time.Time
}

func NewOrchestrator(gateway Gateway, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		gateway: gateway,
		logger:  logger,
		now:     time.Now,
	}
}

// NewOrderID returns an order reference of the form ord_<uuid>.
func NewOrderID() string {
	return "ord_" + uuid.New().String()
}

// Start opens a session in collecting. The auth session must hold a user and
// the cart must have at least one line. quote may be nil and set later with
// SetFreight.
func (o *Orchestrator) Start(auth *models.AuthSession, store *cart.Store, quote *models.FreightQuote) (*Session, error) {
	if !auth.IsAuthenticated() {
		return nil, errors.ErrNotAuthenticated
	}
	if store == nil || store.IsEmpty() {
		return nil, errors.NewValidationError("cart", "is empty")
	}

	now := o.now().UTC()
	s := &Session{
		id:        uuid.New().String(),
		userID:    auth.User.ID,
		orderID:   NewOrderID(),
		email:     auth.User.Email,
		status:    StatusCollecting,
		subtotal:  store.Total(),
		createdAt: now,
		updatedAt: now,
	}
	if quote != nil {
		q := *quote
		s.freight = &q
	}

	o.logger.Info("Checkout started", logging.Fields{
		"session_id": s.id,
		"user_id":    s.userID,
		"order_id":   s.orderID,
	})
	return s, nil
}

// SetFreight replaces the quote of a session that is not yet submitted or
// waiting for a retry.
func (o *Orchestrator) SetFreight(s *Session, quote *models.FreightQuote) error {
	if quote == nil {
		return errors.NewValidationError("freight", "quote is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.InFlight() {
		return errors.ErrCheckoutInFlight
	}
	if s.status != StatusCollecting && !s.status.Retryable() {
		return fmt.Errorf("set freight in %s: %w", s.status, errors.ErrInvalidTransition)
	}

	q := *quote
	s.freight = &q
	s.updatedAt = o.now().UTC()
	return nil
}

// Submit validates the form, then tokenizes the card and authorizes
// subtotal + freight. Validation failures return InvalidInput without touching
// the session or the gateway.
//
// Gateway answers are reported as an Outcome. A rejected outcome also returns
// an error wrapping ErrGatewayRejected, a failed one wraps ErrGatewayUnavailable.
func (o *Orchestrator) Submit(ctx context.Context, s *Session, store *cart.Store, form Form) (Outcome, error) {
	s.mu.Lock()
	if s.status.InFlight() {
		s.mu.Unlock()
		return Outcome{}, errors.ErrCheckoutInFlight
	}
	if s.status != StatusCollecting && !s.status.Retryable() {
		status := s.status
		s.mu.Unlock()
		return Outcome{}, fmt.Errorf("submit in %s: %w", status, errors.ErrInvalidTransition)
	}

	card, snapshot, err := o.validate(s, store, &form)
	if err != nil {
		s.mu.Unlock()
		return Outcome{}, err
	}

	now := o.now().UTC()
	if s.status.Retryable() {
		_ = s.moveTo(StatusCollecting, now)
	}
	_ = s.moveTo(StatusTokenizing, now)

	amount := CalculateTotal(snapshot.Subtotal, s.freight.Price)
	s.lines = snapshot.Lines
	s.subtotal = snapshot.Subtotal
	s.total = amount
	s.email = form.Email
	s.attempts++

	req := PaymentRequest{
		Amount:            amount,
		Installments:      form.Installments,
		PayerEmail:        form.Email,
		ExternalReference: s.orderID,
		Description:       fmt.Sprintf("Compra #%s - %d item(s)", s.orderID, snapshot.ItemCount),
	}
	sessionID := s.id
	s.mu.Unlock()

	o.logger.Info("Tokenizing card", logging.Fields{"session_id": sessionID, "amount": amount.StringFixed(2)})

	token, err := o.gateway.TokenizeCard(ctx, card)
	if err != nil {
		return o.fail(s, "tokenize", err)
	}

	s.mu.Lock()
	_ = s.moveTo(StatusAuthorizing, o.now().UTC())
	s.mu.Unlock()

	req.Token = token
	result, err := o.gateway.AuthorizePayment(ctx, req)
	if err != nil {
		return o.fail(s, "authorize", err)
	}

	outcome := Outcome{
		Kind:         result.Kind(),
		StatusDetail: result.StatusDetail,
		PaymentID:    result.ID,
	}

	s.mu.Lock()
	_ = s.moveTo(outcome.status(), o.now().UTC())
	s.outcome = &outcome
	s.mu.Unlock()

	o.logger.Info("Payment authorized", logging.Fields{
		"session_id":    sessionID,
		"payment_id":    result.ID,
		"outcome":       string(outcome.Kind),
		"status_detail": result.StatusDetail,
	})

	if outcome.Kind == OutcomeRejected {
		return outcome, fmt.Errorf("payment %s %s: %w", result.ID, result.StatusDetail, errors.ErrGatewayRejected)
	}
	return outcome, nil
}

// validate must be called with s.mu held.
func (o *Orchestrator) validate(s *Session, store *cart.Store, form *Form) (CardData, cart.Snapshot, error) {
	if store == nil {
		return CardData{}, cart.Snapshot{}, errors.NewValidationError("cart", "is empty")
	}
	snapshot := store.Snapshot()
	if len(snapshot.Lines) == 0 {
		return CardData{}, cart.Snapshot{}, errors.NewValidationError("cart", "is empty")
	}
	if s.freight == nil {
		return CardData{}, cart.Snapshot{}, errors.NewValidationError("freight", "quote is required")
	}

	card, err := form.Validate()
	if err != nil {
		return CardData{}, cart.Snapshot{}, err
	}
	return card, snapshot, nil
}

func (o *Orchestrator) fail(s *Session, step string, cause error) (Outcome, error) {
	outcome := Outcome{Kind: OutcomeFailed, StatusDetail: cause.Error()}

	s.mu.Lock()
	_ = s.moveTo(StatusFailed, o.now().UTC())
	s.outcome = &outcome
	sessionID := s.id
	s.mu.Unlock()

	o.logger.Warn("Payment gateway call failed", logging.Fields{
		"session_id": sessionID,
		"step":       step,
		"error":      cause.Error(),
	})

	if errors.Is(cause, errors.ErrGatewayUnavailable) {
		return outcome, fmt.Errorf("%s: %w", step, cause)
	}
	return outcome, fmt.Errorf("%s: %v: %w", step, cause, errors.ErrGatewayUnavailable)
}

// Cancel closes a session that has not produced a final answer. Sessions with
// a gateway call in flight refuse with ErrCheckoutInFlight.
func (o *Orchestrator) Cancel(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.InFlight() {
		return errors.ErrCheckoutInFlight
	}
	if s.status == StatusClosed {
		return nil
	}
	if s.status == StatusApproved || s.status == StatusPending {
		return fmt.Errorf("cancel in %s: %w", s.status, errors.ErrInvalidTransition)
	}
	if err := s.moveTo(StatusClosed, o.now().UTC()); err != nil {
		return err
	}

	o.logger.Info("Checkout cancelled", logging.Fields{"session_id": s.id})
	return nil
}

// Close ends a session after an approved or pending outcome.
func (o *Orchestrator) Close(s *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusApproved && s.status != StatusPending {
		return fmt.Errorf("close in %s: %w", s.status, errors.ErrInvalidTransition)
	}
	return s.moveTo(StatusClosed, o.now().UTC())
}
