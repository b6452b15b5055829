package service

import (
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
)

// OrderTotal represents the pricing breakdown for an order.
type OrderTotal struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Freight  decimal.Decimal `json:"freight"`
	Total    decimal.Decimal `json:"total"`
}

// CalculateOrderTotal computes the full order breakdown, rounded to cents.
func CalculateOrderTotal(subtotal, freight decimal.Decimal) OrderTotal {
	return OrderTotal{
		Subtotal: subtotal.Round(2),
		Freight:  freight.Round(2),
		Total:    checkout.CalculateTotal(subtotal, freight),
	}
}
