package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
)

func TestLoad_EmbeddedCatalog(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Len(t, c.All(), 13)
	assert.Equal(t, []string{"Eletrônicos", "Moda", "Casa", "Esportes", "Livros"}, c.Categories())
}

func TestByID(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	p, err := c.ByID(7)
	require.NoError(t, err)
	assert.Equal(t, "Cafeteira Expresso", p.Name)
	assert.True(t, decimal.RequireFromString("599.00").Equal(p.Price))

	_, err = c.ByID(999)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestByCategoryAndFeatured(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	books := c.ByCategory("Livros")
	require.Len(t, books, 2)
	assert.Equal(t, int64(12), books[0].ID)

	assert.Empty(t, c.ByCategory("Brinquedos"))

	for _, p := range c.Featured() {
		assert.True(t, p.Featured)
	}
	assert.Len(t, c.Featured(), 4)
}

func TestFilterByPrice_Inclusive(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	got := c.FilterByPrice(decimal.RequireFromString("89.00"), decimal.RequireFromString("89.90"))

	ids := make([]int64, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int64{9, 12}, ids)
}

func TestParse_RejectsBadCatalogs(t *testing.T) {
	tests := map[string]string{
		"duplicate id":   `[{"id":1,"name":"a","category":"x","price":"1"},{"id":1,"name":"b","category":"x","price":"2"}]`,
		"negative price": `[{"id":1,"name":"a","category":"x","price":"-1"}]`,
		"not json":       `{`,
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data))
			assert.Error(t, err)
		})
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	all := c.All()
	all[0].Name = "changed"

	p, err := c.ByID(all[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "changed", p.Name)
}
