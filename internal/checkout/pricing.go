package checkout

import "github.com/shopspring/decimal"

// CalculateTotal returns subtotal + freight rounded to cents.
func CalculateTotal(subtotal, freight decimal.Decimal) decimal.Decimal {
	return subtotal.Add(freight).Round(2)
}
