package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// ListProducts handles GET /api/v1/products[?category=&featured=&min_price=&max_price=]
func (h *Handlers) ListProducts(c *gin.Context) {
	var products []models.Product
	switch {
	case c.Query("category") != "":
		products = h.catalog.ByCategory(c.Query("category"))
	case c.Query("featured") == "true":
		products = h.catalog.Featured()
	default:
		products = h.catalog.All()
	}

	if c.Query("min_price") != "" || c.Query("max_price") != "" {
		min, max, ok := priceRange(c)
		if !ok {
			return
		}
		inRange := make(map[int64]struct{})
		for _, p := range h.catalog.FilterByPrice(min, max) {
			inRange[p.ID] = struct{}{}
		}
		filtered := products[:0]
		for _, p := range products {
			if _, ok := inRange[p.ID]; ok {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// priceRange reads min_price and max_price. A missing bound is open.
func priceRange(c *gin.Context) (decimal.Decimal, decimal.Decimal, bool) {
	min := decimal.Zero
	max := decimal.New(1, 12)

	if raw := c.Query("min_price"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			badRequest(c, "invalid min_price")
			return min, max, false
		}
		min = v
	}
	if raw := c.Query("max_price"); raw != "" {
		v, err := decimal.NewFromString(raw)
		if err != nil || v.IsNegative() {
			badRequest(c, "invalid max_price")
			return min, max, false
		}
		max = v
	}
	if min.GreaterThan(max) {
		badRequest(c, "min_price cannot exceed max_price")
		return min, max, false
	}
	return min, max, true
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	product, err := h.catalog.ByID(id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListCategories handles GET /api/v1/categories
func (h *Handlers) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.catalog.Categories()})
}

type freightRequest struct {
	PostalCode string `json:"postal_code"`
}

// QuoteFreight handles POST /api/v1/freight/quote
func (h *Handlers) QuoteFreight(c *gin.Context) {
	var req freightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	quote, err := h.checkout.QuoteFreight(req.PostalCode)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}
