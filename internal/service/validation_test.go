package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func TestValidateProfileUpdate(t *testing.T) {
	tests := []struct {
		name      string
		update    models.ProfileUpdate
		wantField string
	}{
		{"empty update", models.ProfileUpdate{}, ""},
		{"valid name", models.ProfileUpdate{Name: strPtr(" Ana Souza ")}, ""},
		{"blank name", models.ProfileUpdate{Name: strPtr("   ")}, "name"},
		{"short cpf", models.ProfileUpdate{CPF: strPtr("1234")}, "cpf"},
		{"bad cep", models.ProfileUpdate{PostalCode: strPtr("0131")}, "cep"},
		{"state", models.ProfileUpdate{State: strPtr("sp")}, ""},
		{"long state", models.ProfileUpdate{State: strPtr("SPX")}, "estado"},
		{"phone", models.ProfileUpdate{Phone: strPtr("(11) 98765-4321")}, ""},
		{"short phone", models.ProfileUpdate{Phone: strPtr("98765")}, "telefone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProfileUpdate(&tt.update)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *errors.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestValidateProfileUpdate_Normalizes(t *testing.T) {
	update := models.ProfileUpdate{
		Name:  strPtr("  Ana  "),
		State: strPtr("rj"),
		Phone: strPtr("(21) 3333-4444"),
	}
	require.NoError(t, ValidateProfileUpdate(&update))

	assert.Equal(t, "Ana", *update.Name)
	assert.Equal(t, "RJ", *update.State)
	assert.Equal(t, "2133334444", *update.Phone)
}

func TestValidatePagination(t *testing.T) {
	limit, offset, err := ValidatePagination(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)

	limit, _, err = ValidatePagination(500, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, limit)

	_, _, err = ValidatePagination(10, -1)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestValidatePostalCode(t *testing.T) {
	assert.NoError(t, ValidatePostalCode("01310-100"))
	assert.ErrorIs(t, ValidatePostalCode(""), errors.ErrInvalidInput)
	assert.ErrorIs(t, ValidatePostalCode("0131010"), errors.ErrInvalidInput)
}

func TestCalculateOrderTotal(t *testing.T) {
	total := CalculateOrderTotal(decimal.RequireFromString("100"), decimal.RequireFromString("15"))

	assert.Equal(t, "100.00", total.Subtotal.StringFixed(2))
	assert.Equal(t, "15.00", total.Freight.StringFixed(2))
	assert.True(t, decimal.RequireFromString("115.00").Equal(total.Total))
}
