package service

import (
	"context"
	"fmt"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/checkout"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/errors"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/repository"
)

var _ events.PaymentNotificationHandler = (*OrderService)(nil)

// OrderService handles order business logic.
type OrderService struct {
	orderRepo repository.OrderRepository
	gateway   checkout.Gateway
	publisher events.Publisher
	logger    *logging.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	gateway checkout.Gateway,
	publisher events.Publisher,
	logger *logging.Logger,
) *OrderService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &OrderService{
		orderRepo: orderRepo,
		gateway:   gateway,
		publisher: publisher,
		logger:    logger,
	}
}

// GetOrder retrieves one of the user's orders by ID.
func (s *OrderService) GetOrder(ctx context.Context, userID, id string) (*models.Order, error) {
	s.logger.Debug("Getting order", logging.Fields{"order_id": id})

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", id, errors.ErrNotFound)
	}
	return order, nil
}

// ListUserOrders retrieves one page of a user's orders and the total count.
func (s *OrderService) ListUserOrders(ctx context.Context, userID string, limit, offset int) ([]*models.Order, int, error) {
	limit, offset, err := ValidatePagination(limit, offset)
	if err != nil {
		return nil, 0, err
	}

	s.logger.Debug("Getting user orders", logging.Fields{
		"user_id": userID,
		"limit":   limit,
		"offset":  offset,
	})
	return s.orderRepo.ListByUserID(ctx, userID, limit, offset)
}

// HandlePaymentNotification looks the payment up at the gateway and settles
// the payment_pending order it references. Repeated notifications for a
// settled order are no-ops.
func (s *OrderService) HandlePaymentNotification(ctx context.Context, paymentID string) (*models.Order, error) {
	if paymentID == "" {
		return nil, errors.NewValidationError("payment_id", "payment ID is required")
	}

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		s.logger.Error("Failed to get payment", logging.Fields{
			"payment_id": paymentID,
			"error":      err.Error(),
		})
		return nil, err
	}
	if payment.ExternalReference == "" {
		return nil, fmt.Errorf("payment %s has no order reference: %w", paymentID, errors.ErrNotFound)
	}

	order, err := s.orderRepo.GetByID(ctx, payment.ExternalReference)
	if err != nil {
		return nil, err
	}

	next, settled := settledStatus(payment.Status)
	if !settled {
		s.logger.Debug("Payment still pending", logging.Fields{
			"order_id":   order.ID,
			"payment_id": paymentID,
			"status":     payment.Status,
		})
		return order, nil
	}

	if order.Status == next {
		return order, nil
	}
	if !order.CanTransitionTo(next) {
		return nil, fmt.Errorf("order %s %s -> %s: %w", order.ID, order.Status, next, errors.ErrInvalidTransition)
	}

	previous := order.Status
	updated, err := s.orderRepo.UpdateStatus(ctx, order.ID, next, payment.ID, payment.StatusDetail)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Order payment settled", logging.Fields{
		"order_id":        updated.ID,
		"payment_id":      payment.ID,
		"previous_status": string(previous),
		"new_status":      string(updated.Status),
	})

	if err := s.publisher.PublishOrderStatusChanged(ctx, updated, previous); err != nil {
		s.logger.Error("Failed to publish status change event", logging.Fields{
			"order_id": updated.ID,
			"error":    err.Error(),
		})
	}
	return updated, nil
}

// settledStatus maps a gateway status to the order status it settles to. The
// gateway keeps a payment in pending, in_process or authorized while it is
// still deciding, and those leave the order untouched.
func settledStatus(status string) (models.OrderStatus, bool) {
	switch status {
	case checkout.PaymentStatusApproved:
		return models.OrderStatusConfirmed, true
	case checkout.PaymentStatusPending, checkout.PaymentStatusInProcess, checkout.PaymentStatusAuthorized:
		return "", false
	default:
		return models.OrderStatusPaymentRejected, true
	}
}
