package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

type checkoutFixture struct {
	svc       *CheckoutService
	carts     *CartService
	orders    *repository.MemoryOrderRepository
	gateway   *MockGateway
	publisher *MockPublisher
	metrics   *metrics.Metrics
}

func newCheckoutFixture(t *testing.T, result *checkout.PaymentResult) *checkoutFixture {
	t.Helper()
	f := &checkoutFixture{
		carts:     NewCartService(testCatalog(t), nil, nil, logging.New("cart-test")),
		orders:    repository.NewMemoryOrderRepository(),
		gateway:   &MockGateway{Token: "tok_1", Result: result},
		publisher: &MockPublisher{},
		metrics:   metrics.New(),
	}
	orchestrator := checkout.NewOrchestrator(f.gateway, logging.New("checkout-test"))
	f.svc = NewCheckoutService(orchestrator, f.carts, f.orders, f.publisher, f.metrics, logging.New("checkout-service-test"))
	return f
}

// fill puts 2 × product 4 (49.90) in the cart: subtotal 99.80.
func (f *checkoutFixture) fill(t *testing.T) {
	t.Helper()
	_, err := f.carts.AddItem(context.Background(), "user-1", 4, 2)
	require.NoError(t, err)
}

func approved() *checkout.PaymentResult {
	return &checkout.PaymentResult{ID: "pay_1", Status: checkout.PaymentStatusApproved, StatusDetail: "accredited"}
}

func TestCheckoutService_ApprovedRecordsOrderAndClearsCart(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusCollecting, view.Status)
	require.NotNil(t, view.Freight)
	assert.True(t, decimal.RequireFromString("15.00").Equal(view.Freight.Price))

	final, outcome, err := f.svc.SubmitPayment(ctx, "user-1", view.ID, validForm())
	require.NoError(t, err)

	assert.Equal(t, checkout.OutcomeApproved, outcome.Kind)
	assert.Equal(t, checkout.StatusClosed, final.Status)
	assert.True(t, decimal.RequireFromString("114.80").Equal(f.gateway.LastRequest.Amount))
	assert.Equal(t, 0, f.carts.Get(ctx, "user-1").ItemCount)

	order, err := f.orders.GetByID(ctx, view.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, order.Status)
	assert.Equal(t, "pay_1", order.PaymentID)
	assert.Equal(t, "01310-100", order.PostalCode)
	assert.True(t, decimal.RequireFromString("114.80").Equal(order.Total))
	assert.Equal(t, 2, order.ItemCount())

	require.Len(t, f.publisher.Created, 1)
	assert.Equal(t, view.OrderID, f.publisher.Created[0].ID)

	_, err = f.svc.GetSession(ctx, "user-1", view.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CheckoutOutcomes.WithLabelValues("approved")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.FreightQuotes.WithLabelValues("SP")))
}

func TestCheckoutService_PendingKeepsCart(t *testing.T) {
	f := newCheckoutFixture(t, &checkout.PaymentResult{ID: "pay_2", Status: checkout.PaymentStatusPending, StatusDetail: "pending_contingency"})
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "20040-002")
	require.NoError(t, err)

	final, outcome, err := f.svc.SubmitPayment(ctx, "user-1", view.ID, validForm())
	require.NoError(t, err)

	assert.Equal(t, checkout.OutcomePending, outcome.Kind)
	assert.Equal(t, checkout.StatusClosed, final.Status)
	assert.Equal(t, 2, f.carts.Get(ctx, "user-1").ItemCount)

	order, err := f.orders.GetByID(ctx, view.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPaymentPending, order.Status)
	assert.Len(t, f.publisher.Created, 1)
}

func TestCheckoutService_RejectedKeepsSessionForRetry(t *testing.T) {
	f := newCheckoutFixture(t, &checkout.PaymentResult{ID: "pay_3", Status: checkout.PaymentStatusRejected, StatusDetail: "cc_rejected_insufficient_amount"})
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)

	after, outcome, err := f.svc.SubmitPayment(ctx, "user-1", view.ID, validForm())
	assert.ErrorIs(t, err, errors.ErrGatewayRejected)
	assert.Equal(t, checkout.OutcomeRejected, outcome.Kind)
	assert.Equal(t, checkout.StatusRejected, after.Status)

	_, err = f.orders.GetByID(ctx, view.OrderID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Empty(t, f.publisher.Created)
	assert.Equal(t, 2, f.carts.Get(ctx, "user-1").ItemCount)

	f.gateway.Result = approved()
	final, outcome, err := f.svc.SubmitPayment(ctx, "user-1", view.ID, validForm())
	require.NoError(t, err)
	assert.Equal(t, checkout.OutcomeApproved, outcome.Kind)
	assert.Equal(t, 2, final.Attempts)

	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CheckoutOutcomes.WithLabelValues("rejected")))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.CheckoutOutcomes.WithLabelValues("approved")))
}

func TestCheckoutService_GatewayFailureRecordsNothing(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.gateway.TokenizeErr = fmt.Errorf("dial tcp: connection refused")
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)

	after, outcome, err := f.svc.SubmitPayment(ctx, "user-1", view.ID, validForm())
	assert.ErrorIs(t, err, errors.ErrGatewayUnavailable)
	assert.Equal(t, checkout.OutcomeFailed, outcome.Kind)
	assert.Equal(t, checkout.StatusFailed, after.Status)
	assert.Equal(t, 0, f.gateway.AuthorizeCalls)

	_, err = f.orders.GetByID(ctx, view.OrderID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, 2, f.carts.Get(ctx, "user-1").ItemCount)
}

func TestCheckoutService_InvalidFormMakesNoGatewayCalls(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)

	form := validForm()
	form.CVV = "1"
	after, outcome, err := f.svc.SubmitPayment(ctx, "user-1", view.ID, form)

	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	assert.Equal(t, checkout.OutcomeKind(""), outcome.Kind)
	assert.Equal(t, checkout.StatusCollecting, after.Status)
	assert.Equal(t, 0, f.gateway.TokenizeCalls)
}

func TestCheckoutService_StartErrors(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	ctx := context.Background()

	_, err := f.svc.StartCheckout(ctx, &models.AuthSession{}, "01310-100")
	assert.ErrorIs(t, err, errors.ErrNotAuthenticated)

	_, err = f.svc.StartCheckout(ctx, testUser(), "01310-100")
	assert.ErrorIs(t, err, errors.ErrInvalidInput, "empty cart")

	f.fill(t)
	_, err = f.svc.StartCheckout(ctx, testUser(), "123")
	assert.ErrorIs(t, err, errors.ErrInvalidInput, "short CEP")

	assert.Equal(t, 0, f.gateway.TokenizeCalls+f.gateway.AuthorizeCalls)
}

func TestCheckoutService_SessionsAreScopedToOwner(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)

	_, err = f.svc.GetSession(ctx, "user-2", view.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, _, err = f.svc.SubmitPayment(ctx, "user-2", view.ID, validForm())
	assert.ErrorIs(t, err, errors.ErrNotFound)

	err = f.svc.CancelCheckout(ctx, "user-2", view.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	got, err := f.svc.GetSession(ctx, "user-1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)
}

func TestCheckoutService_StartReplacesOpenSession(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.fill(t)
	ctx := context.Background()

	first, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)
	second, err := f.svc.StartCheckout(ctx, testUser(), "20040-020")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = f.svc.GetSession(ctx, "user-1", first.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, _, err = f.svc.SubmitPayment(ctx, "user-1", first.ID, validForm())
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, 0, f.gateway.AuthorizeCalls)

	f.svc.mu.Lock()
	assert.Len(t, f.svc.sessions, 1)
	assert.Equal(t, second.ID, f.svc.byUser["user-1"])
	f.svc.mu.Unlock()

	_, outcome, err := f.svc.SubmitPayment(ctx, "user-1", second.ID, validForm())
	require.NoError(t, err)
	assert.Equal(t, checkout.OutcomeApproved, outcome.Kind)
	assert.Equal(t, 1, f.gateway.AuthorizeCalls)

	f.svc.mu.Lock()
	assert.Empty(t, f.svc.sessions)
	assert.Empty(t, f.svc.byUser)
	f.svc.mu.Unlock()
}

func TestCheckoutService_StartRefusedWhilePaymentInFlight(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.gateway.block = make(chan struct{})
	f.gateway.entered = make(chan struct{})
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, _, err := f.svc.SubmitPayment(ctx, "user-1", view.ID, validForm())
		done <- err
	}()

	<-f.gateway.entered
	_, err = f.svc.StartCheckout(ctx, testUser(), "01310-100")
	assert.ErrorIs(t, err, errors.ErrCheckoutInFlight)

	close(f.gateway.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.gateway.AuthorizeCalls)

	f.fill(t)
	_, err = f.svc.StartCheckout(ctx, testUser(), "01310-100")
	assert.NoError(t, err)
}

func TestCheckoutService_CancelForgetsSession(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelCheckout(ctx, "user-1", view.ID))

	_, err = f.svc.GetSession(ctx, "user-1", view.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	assert.Equal(t, 2, f.carts.Get(ctx, "user-1").ItemCount)
}

func TestCheckoutService_UpdateFreight(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)

	view, err = f.svc.UpdateFreight(ctx, "user-1", view.ID, "99999-999")
	require.NoError(t, err)
	require.NotNil(t, view.Freight)
	assert.False(t, view.Freight.Covered)
	assert.True(t, decimal.RequireFromString("35.00").Equal(view.Freight.Price))

	_, _, err = f.svc.SubmitPayment(ctx, "user-1", view.ID, validForm())
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("134.80").Equal(f.gateway.LastRequest.Amount))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.FreightQuotes.WithLabelValues("fallback")))
}

func TestCheckoutService_QuoteFreight(t *testing.T) {
	f := newCheckoutFixture(t, approved())

	quote, err := f.svc.QuoteFreight("30130-010")
	require.NoError(t, err)
	assert.Equal(t, "30130010", quote.PostalCode)
	assert.True(t, decimal.RequireFromString("20.00").Equal(quote.Price))

	_, err = f.svc.QuoteFreight("")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestCheckoutService_PublishFailureStillCompletes(t *testing.T) {
	f := newCheckoutFixture(t, approved())
	f.publisher.Err = fmt.Errorf("broker down")
	f.fill(t)
	ctx := context.Background()

	view, err := f.svc.StartCheckout(ctx, testUser(), "01310-100")
	require.NoError(t, err)

	final, _, err := f.svc.SubmitPayment(ctx, "user-1", view.ID, validForm())
	require.NoError(t, err)
	assert.Equal(t, checkout.StatusClosed, final.Status)

	_, err = f.orders.GetByID(ctx, view.OrderID)
	assert.NoError(t, err)
}
