package freight

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
)

func TestQuote_SaoPaulo(t *testing.T) {
	quote, err := Quote("01310-100")

	require.NoError(t, err)
	assert.Equal(t, "01310100", quote.PostalCode)
	assert.True(t, decimal.RequireFromString("15.00").Equal(quote.Price))
	assert.Equal(t, 3, quote.BusinessDays)
	assert.Equal(t, "Sedex", quote.Carrier)
	assert.True(t, quote.Covered)
}

func TestQuote_FallbackForUncoveredPrefix(t *testing.T) {
	quote, err := Quote("99999-999")

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("35.00").Equal(quote.Price))
	assert.Equal(t, 10, quote.BusinessDays)
	assert.Equal(t, "PAC (Região Especial)", quote.Carrier)
	assert.False(t, quote.Covered)
}

func TestQuote_InvalidInput(t *testing.T) {
	tests := []string{"123", "", "0131010", "013101000", "abcde-fgh"}

	for _, cep := range tests {
		t.Run(cep, func(t *testing.T) {
			quote, err := Quote(cep)
			assert.Nil(t, quote)
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}
}

func TestQuote_RegionalRates(t *testing.T) {
	tests := []struct {
		cep     string
		price   string
		days    int
		carrier string
	}{
		{"20040-002", "18.00", 4, "PAC"},
		{"30130-010", "20.00", 5, "PAC"},
		{"40020-000", "25.00", 6, "PAC"},
		{"50030-230", "26.00", 6, "PAC"},
		{"60060-440", "28.00", 7, "PAC"},
		{"70040-010", "22.00", 5, "Sedex"},
		{"74003-010", "23.00", 5, "PAC"},
		{"79002-000", "24.00", 6, "PAC"},
		{"80010-000", "17.00", 3, "Sedex"},
		{"88010-001", "19.00", 4, "PAC"},
		{"90010-150", "21.00", 4, "PAC"},
		{"43700-000", "35.00", 10, "PAC (Região Especial)"},
		{"10000-000", "35.00", 10, "PAC (Região Especial)"},
	}

	for _, tt := range tests {
		t.Run(tt.cep, func(t *testing.T) {
			quote, err := Quote(tt.cep)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.price).Equal(quote.Price), "price %s", quote.Price)
			assert.Equal(t, tt.days, quote.BusinessDays)
			assert.Equal(t, tt.carrier, quote.Carrier)
		})
	}
}

func TestQuote_IsDeterministic(t *testing.T) {
	first, err := Quote("22250-040")
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		again, err := Quote("22250 040")
		require.NoError(t, err)
		assert.Equal(t, first.PostalCode, again.PostalCode)
		assert.True(t, first.Price.Equal(again.Price))
		assert.Equal(t, first.Carrier, again.Carrier)
	}
}

func TestFormatCEP(t *testing.T) {
	assert.Equal(t, "01310-100", FormatCEP("01310100"))
	assert.Equal(t, "01310-100", FormatCEP("01.310-100"))
	assert.Equal(t, "123", FormatCEP("123"))
}

func TestValidCEP(t *testing.T) {
	assert.True(t, ValidCEP("01310-100"))
	assert.False(t, ValidCEP("01310-10"))
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "SP", Region("01310-100"))
	assert.Equal(t, "RS", Region("90010150"))
	assert.Equal(t, "fallback", Region("99999-999"))
	assert.Equal(t, "fallback", Region("1"))
}
