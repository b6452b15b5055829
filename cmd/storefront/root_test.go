package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuoteCommand(t *testing.T) {
	out, err := runRoot(t, "quote", "01310-100")
	require.NoError(t, err)

	var quote models.FreightQuote
	require.NoError(t, json.Unmarshal([]byte(out), &quote))
	assert.Equal(t, "01310100", quote.PostalCode)
	assert.True(t, decimal.NewFromInt(15).Equal(quote.Price))
	assert.Equal(t, "Sedex", quote.Carrier)
}

func TestQuoteCommandRejectsShortCEP(t *testing.T) {
	_, err := runRoot(t, "quote", "123")
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestQuoteCommandNeedsOneArg(t *testing.T) {
	_, err := runRoot(t, "quote")
	assert.Error(t, err)
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	_, err := runRoot(t, "migrate", "down", "zero")
	assert.ErrorContains(t, err, "invalid steps")
}
