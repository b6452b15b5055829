// Package freight quotes shipping cost from a Brazilian postal code (CEP).
//
// Quotes are flat regional rates keyed by the first two digits of the CEP.
// Prefixes without an entry get the fallback rate instead of an error.
package freight

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

const cepLength = 8

type rate struct {
	region       string
	price        decimal.Decimal
	businessDays int
	carrier      string
}

var (
	fallbackRate = rate{
		region:       "fallback",
		price:        decimal.RequireFromString("35.00"),
		businessDays: 10,
		carrier:      "PAC (Região Especial)",
	}

	rateTable = buildTable()
)

func buildTable() map[string]rate {
	t := make(map[string]rate)
	add := func(region, price string, days int, carrier string, prefixes ...string) {
		r := rate{region: region, price: decimal.RequireFromString(price), businessDays: days, carrier: carrier}
		for _, p := range prefixes {
			t[p] = r
		}
	}

	add("SP", "15.00", 3, "Sedex", "01", "02", "03", "04", "05", "06", "07", "08", "09")
	add("RJ", "18.00", 4, "PAC", "20", "21", "22", "23", "24", "25", "26", "27", "28")
	add("MG", "20.00", 5, "PAC", "30", "31", "32", "33", "34", "35", "36", "37", "38", "39")
	add("BA", "25.00", 6, "PAC", "40", "41", "42", "44", "45", "46", "47", "48", "49")
	add("PE", "26.00", 6, "PAC", "50", "51", "52", "53", "54", "55", "56")
	add("CE", "28.00", 7, "PAC", "60", "61", "62", "63", "64", "65", "66", "67", "68", "69")
	add("DF", "22.00", 5, "Sedex", "70", "71", "72")
	add("GO", "23.00", 5, "PAC", "73", "74", "75", "76")
	add("MS", "24.00", 6, "PAC", "79")
	add("PR", "17.00", 3, "Sedex", "80", "81", "82", "83", "84", "85", "86", "87")
	add("SC", "19.00", 4, "PAC", "88", "89")
	// 99 is left to the fallback rate.
	add("RS", "21.00", 4, "PAC", "90", "91", "92", "93", "94", "95", "96", "97", "98")

	return t
}

// Normalize strips every non-digit character.
func Normalize(postalCode string) string {
	var b strings.Builder
	b.Grow(len(postalCode))
	for _, r := range postalCode {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCEP reports whether the postal code normalizes to exactly 8 digits.
func ValidCEP(postalCode string) bool {
	return len(Normalize(postalCode)) == cepLength
}

// FormatCEP renders a postal code as XXXXX-XXX. Invalid input is returned unchanged.
func FormatCEP(postalCode string) string {
	clean := Normalize(postalCode)
	if len(clean) != cepLength {
		return postalCode
	}
	return clean[:5] + "-" + clean[5:]
}

// Region returns the region label for a normalized CEP, or "fallback" when the
// prefix has no table entry.
func Region(postalCode string) string {
	clean := Normalize(postalCode)
	if len(clean) < 2 {
		return fallbackRate.region
	}
	if r, ok := rateTable[clean[:2]]; ok {
		return r.region
	}
	return fallbackRate.region
}

// Quote returns the shipping quote for postalCode. It fails only when the code
// does not normalize to 8 digits.
func Quote(postalCode string) (*models.FreightQuote, error) {
	clean := Normalize(postalCode)
	if len(clean) != cepLength {
		return nil, fmt.Errorf("quote %q: %w", postalCode,
			errors.NewValidationError("postal_code", "CEP must have 8 digits"))
	}

	r, covered := rateTable[clean[:2]]
	if !covered {
		r = fallbackRate
	}

	return &models.FreightQuote{
		PostalCode:   clean,
		Price:        r.price,
		BusinessDays: r.businessDays,
		Carrier:      r.carrier,
		Covered:      covered,
	}, nil
}

// Calculator adapts Quote to an injectable dependency.
type Calculator struct{}

func (Calculator) Quote(postalCode string) (*models.FreightQuote, error) {
	return Quote(postalCode)
}
