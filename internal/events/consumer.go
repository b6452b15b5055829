package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-storefront-service/internal/models"
)

// PaymentNotification is the gateway webhook body. The same shape arrives over
// HTTP and on the payments topic.
type PaymentNotification struct {
	ID     json.RawMessage `json:"id,omitempty"`
	Type   string          `json:"type"`
	Action string          `json:"action"`
	Data   struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
}

// PaymentID returns data.id with quotes stripped, since gateways send it as
// either a number or a string.
func (n *PaymentNotification) PaymentID() string {
	id := string(n.Data.ID)
	if len(id) >= 2 && id[0] == '"' && id[len(id)-1] == '"' {
		return id[1 : len(id)-1]
	}
	return id
}

// IsPayment reports whether the notification concerns a payment.
func (n *PaymentNotification) IsPayment() bool {
	return n.Type == "payment" && n.PaymentID() != ""
}

// PaymentNotificationHandler applies a payment notification to stored orders.
type PaymentNotificationHandler interface {
	HandlePaymentNotification(ctx context.Context, paymentID string) (*models.Order, error)
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConsumer reads payment notifications from the payments topic.
type KafkaConsumer struct {
	reader  messageReader
	handler PaymentNotificationHandler
	logger  *logging.Logger
	stopCh  chan struct{}
	stopped sync.Once
}

func NewKafkaConsumer(cfg config.KafkaConfig, handler PaymentNotificationHandler, logger *logging.Logger) *KafkaConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.PaymentsTopic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})

	return &KafkaConsumer{
		reader:  reader,
		handler: handler,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start blocks consuming messages until ctx is done or Stop is called.
func (c *KafkaConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting Kafka consumer")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.stopCh:
			c.logger.Info("Kafka consumer stopped")
			return nil
		default:
		}

		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("Failed to read message", logging.Fields{"error": err.Error()})
			continue
		}

		c.handleMessage(ctx, msg)
	}
}

// Stop stops the consumer. Calling it more than once is safe.
func (c *KafkaConsumer) Stop() {
	c.stopped.Do(func() {
		close(c.stopCh)
		if err := c.reader.Close(); err != nil {
			c.logger.Warn("Failed to close Kafka reader", logging.Fields{"error": err.Error()})
		}
	})
}

func (c *KafkaConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	c.logger.Debug("Received message", logging.Fields{
		"topic":     msg.Topic,
		"partition": msg.Partition,
		"offset":    msg.Offset,
	})

	var n PaymentNotification
	if err := json.Unmarshal(msg.Value, &n); err != nil {
		c.logger.Error("Failed to unmarshal notification", logging.Fields{"error": err.Error()})
		return
	}
	if !n.IsPayment() {
		c.logger.Debug("Ignoring notification", logging.Fields{"type": n.Type, "action": n.Action})
		return
	}

	order, err := c.handler.HandlePaymentNotification(ctx, n.PaymentID())
	if err != nil {
		c.logger.Error("Failed to apply payment notification", logging.Fields{
			"payment_id": n.PaymentID(),
			"error":      err.Error(),
		})
		return
	}

	c.logger.Info("Payment notification applied", logging.Fields{
		"payment_id": n.PaymentID(),
		"order_id":   order.ID,
		"status":     string(order.Status),
	})
}
