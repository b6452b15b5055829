package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addItemRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// GetCart handles GET /api/v1/cart
func (h *Handlers) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, h.carts.Get(c.Request.Context(), currentUserID(c)))
}

// AddCartItem handles POST /api/v1/cart/items. Quantity defaults to one.
func (h *Handlers) AddCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	snapshot, err := h.carts.AddItem(c.Request.Context(), currentUserID(c), req.ProductID, req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// UpdateCartItem handles PUT /api/v1/cart/items/:id. A quantity of zero or
// less removes the line.
func (h *Handlers) UpdateCartItem(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		badRequest(c, "quantity is required")
		return
	}

	snapshot, err := h.carts.UpdateQuantity(c.Request.Context(), currentUserID(c), id, *req.Quantity)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// RemoveCartItem handles DELETE /api/v1/cart/items/:id
func (h *Handlers) RemoveCartItem(c *gin.Context) {
	id, ok := productIDParam(c)
	if !ok {
		return
	}

	snapshot, err := h.carts.RemoveItem(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ClearCart handles DELETE /api/v1/cart
func (h *Handlers) ClearCart(c *gin.Context) {
	h.carts.Clear(c.Request.Context(), currentUserID(c))
	c.Status(http.StatusNoContent)
}
