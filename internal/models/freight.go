package models

import "github.com/shopspring/decimal"

// FreightQuote is the shipping price and delivery estimate for a postal code.
type FreightQuote struct {
	PostalCode   string          `json:"postal_code"`
	Price        decimal.Decimal `json:"price"`
	BusinessDays int             `json:"business_days"`
	Carrier      string          `json:"carrier"`
	Covered      bool            `json:"covered"`
}
