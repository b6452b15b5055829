// Package catalog serves the read-only product list bundled with the binary.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

//go:embed products.json
var productsJSON []byte

// Catalog is an immutable, ordered product list.
type Catalog struct {
	products []models.Product
	byID     map[int64]int
}

// Load parses the embedded product list.
func Load() (*Catalog, error) {
	return Parse(productsJSON)
}

// Parse builds a catalog from a JSON array of products. Duplicate ids and
// negative prices are rejected.
func Parse(data []byte) (*Catalog, error) {
	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{
		products: products,
		byID:     make(map[int64]int, len(products)),
	}
	for i, p := range products {
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("parse catalog: duplicate product id %d", p.ID)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("parse catalog: product %d has negative price", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

func (c *Catalog) All() []models.Product {
	out := make([]models.Product, len(c.products))
	copy(out, c.products)
	return out
}

// ByID returns ErrNotFound for unknown ids.
func (c *Catalog) ByID(id int64) (models.Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, fmt.Errorf("product %d: %w", id, errors.ErrNotFound)
	}
	return c.products[i], nil
}

func (c *Catalog) ByCategory(category string) []models.Product {
	return c.filter(func(p models.Product) bool { return p.Category == category })
}

// Categories lists category names in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

func (c *Catalog) Featured() []models.Product {
	return c.filter(func(p models.Product) bool { return p.Featured })
}

// FilterByPrice keeps products priced within [min, max], both inclusive.
func (c *Catalog) FilterByPrice(min, max decimal.Decimal) []models.Product {
	return c.filter(func(p models.Product) bool {
		return p.Price.GreaterThanOrEqual(min) && p.Price.LessThanOrEqual(max)
	})
}

func (c *Catalog) filter(keep func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0)
	for _, p := range c.products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
