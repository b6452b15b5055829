package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
)

// PaymentWebhook handles POST /api/v1/payments/webhook. Notifications that
// are not about a payment are acknowledged and ignored.
func (h *Handlers) PaymentWebhook(c *gin.Context) {
	var notification events.PaymentNotification
	if err := c.ShouldBindJSON(&notification); err != nil {
		h.logger.Error("Failed to bind webhook payload", logging.Fields{"error": err.Error()})
		badRequest(c, "invalid request body")
		return
	}

	if !notification.IsPayment() {
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	order, err := h.orders.HandlePaymentNotification(c.Request.Context(), notification.PaymentID())
	if err != nil {
		h.logger.Error("Webhook processing failed", logging.Fields{
			"payment_id": notification.PaymentID(),
			"error":      err.Error(),
		})
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "received",
		"order_id":     order.ID,
		"order_status": order.Status,
	})
}
