package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/middleware"
)

// Ensure HTTPPaymentGateway implements checkout.Gateway
var _ checkout.Gateway = (*HTTPPaymentGateway)(nil)

// HTTPPaymentGateway talks to a MercadoPago-style card payment API. Every call
// goes through a circuit breaker; an open breaker fails fast with
// ErrGatewayUnavailable.
type HTTPPaymentGateway struct {
	baseURL     string
	httpClient  *http.Client
	accessToken string
	breaker     *gobreaker.CircuitBreaker[[]byte]
	metrics     *metrics.Metrics
	logger      *logging.Logger
}

// NewHTTPPaymentGateway creates a gateway client. m may be nil.
func NewHTTPPaymentGateway(cfg config.GatewayConfig, m *metrics.Metrics, logger *logging.Logger) *HTTPPaymentGateway {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	settings := gobreaker.Settings{
		Name:    "payment-gateway",
		Timeout: cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// Client errors are answers, not outages.
		IsSuccessful: func(err error) bool {
			var se *statusError
			return err == nil || (errors.As(err, &se) && se.StatusCode < 500)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", logging.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	}

	return &HTTPPaymentGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		accessToken: cfg.APIKey,
		breaker:     gobreaker.NewCircuitBreaker[[]byte](settings),
		metrics:     m,
		logger:      logger,
	}
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("payment gateway returned status %d: %s", e.StatusCode, e.Body)
}

type cardTokenRequest struct {
	Number          string `json:"number"`
	HolderName      string `json:"holder_name"`
	ExpirationMonth int    `json:"expiration_month"`
	ExpirationYear  int    `json:"expiration_year"`
	SecurityCode    string `json:"security_code"`
}

type payer struct {
	Email string `json:"email"`
}

type paymentRequest struct {
	Token             string      `json:"token"`
	TransactionAmount json.Number `json:"transaction_amount"`
	Installments      int         `json:"installments"`
	PaymentMethodID   string      `json:"payment_method_id"`
	Payer             payer       `json:"payer"`
	ExternalReference string      `json:"external_reference"`
	Description       string      `json:"description"`
}

type paymentResponse struct {
	ID                json.RawMessage `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
}

func (r *paymentResponse) result() *checkout.PaymentResult {
	return &checkout.PaymentResult{
		ID:                strings.Trim(string(r.ID), `"`),
		Status:            r.Status,
		StatusDetail:      r.StatusDetail,
		ExternalReference: r.ExternalReference,
	}
}

// TokenizeCard exchanges card data for a single-use token.
func (g *HTTPPaymentGateway) TokenizeCard(ctx context.Context, card checkout.CardData) (string, error) {
	g.logger.Debug("Tokenizing card", logging.Fields{
		"last_four": card.Number[len(card.Number)-4:],
	})

	body, err := g.do(ctx, "tokenize", http.MethodPost, "/v1/card_tokens", cardTokenRequest{
		Number:          card.Number,
		HolderName:      card.HolderName,
		ExpirationMonth: card.ExpirationMonth,
		ExpirationYear:  card.ExpirationYear,
		SecurityCode:    card.SecurityCode,
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode card token: %v: %w", err, errors.ErrGatewayUnavailable)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("card token missing id: %w", errors.ErrGatewayUnavailable)
	}
	return resp.ID, nil
}

// AuthorizePayment charges the tokenized card.
func (g *HTTPPaymentGateway) AuthorizePayment(ctx context.Context, req checkout.PaymentRequest) (*checkout.PaymentResult, error) {
	g.logger.Debug("Authorizing payment", logging.Fields{
		"external_reference": req.ExternalReference,
		"amount":             req.Amount.StringFixed(2),
		"installments":       req.Installments,
	})

	body, err := g.do(ctx, "authorize", http.MethodPost, "/v1/payments", paymentRequest{
		Token:             req.Token,
		TransactionAmount: json.Number(req.Amount.StringFixed(2)),
		Installments:      req.Installments,
		PaymentMethodID:   "credit_card",
		Payer:             payer{Email: req.PayerEmail},
		ExternalReference: req.ExternalReference,
		Description:       req.Description,
	})
	if err != nil {
		return nil, err
	}

	var resp paymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode payment: %v: %w", err, errors.ErrGatewayUnavailable)
	}

	result := resp.result()
	g.logger.Info("Payment processed", logging.Fields{
		"external_reference": req.ExternalReference,
		"payment_id":         result.ID,
		"status":             result.Status,
	})
	return result, nil
}

// GetPayment looks a payment up by id. Unknown ids return ErrNotFound.
func (g *HTTPPaymentGateway) GetPayment(ctx context.Context, paymentID string) (*checkout.PaymentResult, error) {
	body, err := g.do(ctx, "get_payment", http.MethodGet, "/v1/payments/"+paymentID, nil)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("payment %s: %w", paymentID, errors.ErrNotFound)
		}
		return nil, err
	}

	var resp paymentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode payment: %v: %w", err, errors.ErrGatewayUnavailable)
	}
	return resp.result(), nil
}

// do runs one request through the breaker. Every error it returns wraps
// ErrGatewayUnavailable.
func (g *HTTPPaymentGateway) do(ctx context.Context, op, method, path string, payload interface{}) ([]byte, error) {
	start := time.Now()
	body, err := g.breaker.Execute(func() ([]byte, error) {
		return g.send(ctx, method, path, payload)
	})
	if g.metrics != nil {
		g.metrics.ObserveGateway(op, start, err)
	}

	if err != nil {
		g.logger.Error("Payment gateway request failed", logging.Fields{
			"operation": op,
			"error":     err.Error(),
		})
		return nil, &gatewayError{op: op, err: err}
	}
	return body, nil
}

func (g *HTTPPaymentGateway) send(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	g.setHeaders(ctx, req)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &statusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func (g *HTTPPaymentGateway) setHeaders(ctx context.Context, req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if g.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.accessToken)
	}
	if req.Method == http.MethodPost {
		req.Header.Set("X-Idempotency-Key", uuid.New().String())
	}
	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		req.Header.Set(middleware.HeaderRequestID, requestID)
	}
}

// gatewayError keeps the underlying cause for errors.As while matching
// ErrGatewayUnavailable.
type gatewayError struct {
	op  string
	err error
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s: %v", e.op, e.err)
}

func (e *gatewayError) Unwrap() []error {
	return []error{errors.ErrGatewayUnavailable, e.err}
}
