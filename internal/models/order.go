package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the only currency the storefront charges in.
const DefaultCurrency = "BRL"

// OrderStatus represents the lifecycle of a recorded order.
type OrderStatus string

const (
	OrderStatusPaymentPending  OrderStatus = "payment_pending"
	OrderStatusConfirmed       OrderStatus = "confirmed"
	OrderStatusPaymentRejected OrderStatus = "payment_rejected"
)

// Order is the durable record of a checkout that reached approved or pending.
type Order struct {
	ID           string          `json:"id"`
	UserID       string          `json:"user_id"`
	Status       OrderStatus     `json:"status"`
	Items        []CartLine      `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Freight      decimal.Decimal `json:"freight"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	PostalCode   string          `json:"postal_code"`
	PaymentID    string          `json:"payment_id,omitempty"`
	StatusDetail string          `json:"status_detail,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CanTransitionTo reports whether the order may move to next. Only orders still
// waiting for the gateway can change.
func (o *Order) CanTransitionTo(next OrderStatus) bool {
	if o.Status != OrderStatusPaymentPending {
		return false
	}
	return next == OrderStatusConfirmed || next == OrderStatusPaymentRejected
}

// ItemCount sums quantities over the order lines.
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
