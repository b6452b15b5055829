package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

type startCheckoutRequest struct {
	PostalCode string `json:"postal_code"`
}

// StartCheckout handles POST /api/v1/checkout
func (h *Handlers) StartCheckout(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}

	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	view, err := h.checkout.StartCheckout(c.Request.Context(), session, req.PostalCode)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetCheckout handles GET /api/v1/checkout/:id
func (h *Handlers) GetCheckout(c *gin.Context) {
	view, err := h.checkout.GetSession(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateCheckoutFreight handles PUT /api/v1/checkout/:id/freight
func (h *Handlers) UpdateCheckoutFreight(c *gin.Context) {
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	view, err := h.checkout.UpdateFreight(c.Request.Context(), currentUserID(c), c.Param("id"), req.PostalCode)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitCheckout handles POST /api/v1/checkout/:id/submit. Gateway answers
// come back with the session and the outcome: 200 for approved or pending,
// 402 for rejected, 502 for a failed gateway call.
func (h *Handlers) SubmitCheckout(c *gin.Context) {
	var form checkout.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	sessionID := c.Param("id")
	view, outcome, err := h.checkout.SubmitPayment(c.Request.Context(), currentUserID(c), sessionID, form)
	if err != nil && outcome.Kind == "" {
		handleError(c, err)
		return
	}

	status := http.StatusOK
	body := gin.H{
		"session": view,
		"outcome": outcome,
	}
	if err != nil {
		status, body["error"] = errorStatus(err)
		h.logger.Info("Checkout submission not approved", logging.Fields{
			"session_id": sessionID,
			"outcome":    string(outcome.Kind),
			"error":      err.Error(),
		})
	}
	c.JSON(status, body)
}

// CancelCheckout handles DELETE /api/v1/checkout/:id
func (h *Handlers) CancelCheckout(c *gin.Context) {
	if err := h.checkout.CancelCheckout(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
