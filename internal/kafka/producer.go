package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// Producer streams booking-platform events. A single writer routes by
// per-message topic so the gateway does not hold one connection per event
// kind.
type Producer struct {
	writer *kafka.Writer
	topics config.TopicConfig
	log    *logger.Logger

	// mockMode logs instead of writing, for local runs without a broker.
	mockMode bool
}

func NewProducer(cfg config.KafkaConfig, log *logger.Logger) *Producer {
	if cfg.MockMode {
		log.Warn("KAFKA", "producer running in mock mode, events are logged only")
		return &Producer{topics: cfg.Topics, log: log, mockMode: true}
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer, topics: cfg.Topics, log: log}
}

// Publish writes one message to the given topic.
func (p *Producer) Publish(topic, key string, value []byte) error {
	if p.mockMode {
		p.log.LogKafka("MOCK", topic, string(value))
		return nil
	}

	err := p.writer.WriteMessages(context.Background(), kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}

	p.log.LogKafka("PUBLISH", topic, fmt.Sprintf("key=%s", key))
	return nil
}

func (p *Producer) publishJSON(topic, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", topic, err)
	}
	return p.Publish(topic, key, data)
}

func (p *Producer) PublishBookingCreated(booking models.Booking) error {
	return p.publishJSON(p.topics.BookingCreated, booking.BookingID, booking)
}

func (p *Producer) PublishBookingUpdated(booking models.Booking) error {
	return p.publishJSON(p.topics.BookingUpdated, booking.BookingID, booking)
}

func (p *Producer) PublishTicketStatusChanged(ticket models.Ticket) error {
	return p.publishJSON(p.topics.TicketStatusChanged, ticket.TicketID, ticket)
}

func (p *Producer) PublishPaymentSucceeded(payment models.Payment) error {
	return p.publishJSON(p.topics.PaymentSucceeded, payment.PaymentID, payment)
}

// PaymentWindowClosedEvent is emitted when a booking's payment window key
// expires in Redis. The booking status is untouched; consumers decide how
// to notify.
type PaymentWindowClosedEvent struct {
	BookingID string `json:"booking_id"`
	ExpiredAt string `json:"expired_at"`
}

func (p *Producer) PublishPaymentWindowClosed(event PaymentWindowClosedEvent) error {
	return p.publishJSON(p.topics.PaymentWindowClosed, event.BookingID, event)
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
