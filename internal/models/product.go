package models

import "github.com/shopspring/decimal"

// Product is an immutable catalog entry.
type Product struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Category        string           `json:"category"`
	Price           decimal.Decimal  `json:"price"`
	Description     string           `json:"description,omitempty"`
	Featured        bool             `json:"featured,omitempty"`
	DiscountPercent *int             `json:"discount_percent,omitempty"`
	OriginalPrice   *decimal.Decimal `json:"original_price,omitempty"`
}

// CartLine is a product and the quantity of it held in a cart.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal is price × quantity.
func (l CartLine) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
