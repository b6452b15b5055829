package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/catalog"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

var errNotAtGateway = fmt.Errorf("payment lookup: %w", errors.ErrNotFound)

// MockGateway answers with canned results and counts calls.
type MockGateway struct {
	mu sync.Mutex

	Token       string
	TokenizeErr error
	Result      *checkout.PaymentResult
	AuthErr     error
	Payments    map[string]*checkout.PaymentResult

	// block, when set, holds AuthorizePayment until it is closed.
	block   chan struct{}
	entered chan struct{}

	TokenizeCalls  int
	AuthorizeCalls int
	LastRequest    checkout.PaymentRequest
}

func (m *MockGateway) TokenizeCard(ctx context.Context, card checkout.CardData) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TokenizeCalls++
	return m.Token, m.TokenizeErr
}

func (m *MockGateway) AuthorizePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentResult, error) {
	m.mu.Lock()
	m.AuthorizeCalls++
	m.LastRequest = req
	block, entered := m.block, m.entered
	m.mu.Unlock()

	if block != nil {
		close(entered)
		<-block
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AuthErr != nil {
		return nil, m.AuthErr
	}
	result := *m.Result
	result.ExternalReference = req.ExternalReference
	return &result, nil
}

func (m *MockGateway) GetPayment(ctx context.Context, paymentID string) (*checkout.PaymentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.Payments[paymentID]; ok {
		return p, nil
	}
	return nil, errNotAtGateway
}

// MockPublisher records published events.
type MockPublisher struct {
	mu       sync.Mutex
	Created  []*models.Order
	Changed  []*models.Order
	Previous []models.OrderStatus
	Err      error
}

func (p *MockPublisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Created = append(p.Created, order)
	return p.Err
}

func (p *MockPublisher) PublishOrderStatusChanged(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Changed = append(p.Changed, order)
	p.Previous = append(p.Previous, previous)
	return p.Err
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load()
	require.NoError(t, err)
	return cat
}

func testUser() *models.AuthSession {
	return &models.AuthSession{
		User:        &models.User{ID: "user-1", Email: "ana@example.com"},
		AccessToken: "token-1",
	}
}

func validForm() checkout.Form {
	return checkout.Form{
		CardNumber:  "4509 9535 6623 3704",
		HolderName:  "APRO",
		ExpiryMonth: "11",
		ExpiryYear:  "30",
		CVV:         "123",
		Email:       "ana@example.com",
	}
}
