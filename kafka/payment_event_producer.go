package kafka

import (
	"context"
	"encoding/json"

	"tiffin-service/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentEventProducer publishes standardized payment events. It is optional
// infrastructure: the caller only constructs one when brokers are configured.
type PaymentEventProducer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewPaymentEventProducer(brokers []string, topic string, logger *zap.Logger) *PaymentEventProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Payment event producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers))
	return &PaymentEventProducer{writer: w, topic: topic, logger: logger}
}

func (p *PaymentEventProducer) SendPaymentEvent(event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
	}
	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		p.logger.Warn("Failed to publish payment event",
			zap.String("order_id", event.OrderID),
			zap.String("event_type", event.Type),
			zap.Error(err))
		return err
	}
	p.logger.Info("Payment event published",
		zap.String("order_id", event.OrderID),
		zap.String("event_type", event.Type),
		zap.String("topic", p.topic))
	return nil
}

func (p *PaymentEventProducer) Close() error {
	p.logger.Info("Closing payment event producer", zap.String("topic", p.topic))
	return p.writer.Close()
}
