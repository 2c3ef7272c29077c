package kafka

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
)

// EnsureTopicsExist creates the platform topics on startup so the first
// publish does not race topic auto-creation.
func EnsureTopicsExist(cfg config.KafkaConfig, log *logger.Logger) error {
	topics := []string{
		cfg.Topics.BookingCreated,
		cfg.Topics.BookingUpdated,
		cfg.Topics.PaymentSucceeded,
		cfg.Topics.PaymentWindowClosed,
		cfg.Topics.TicketStatusChanged,
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to find kafka controller: %w", err)
	}

	controllerConn, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer controllerConn.Close()

	for _, topic := range topics {
		err := controllerConn.CreateTopics(kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
		if err != nil {
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			log.Error("KAFKA", fmt.Sprintf("failed to create topic %s: %v", topic, err))
			continue
		}
		log.LogKafka("TOPIC", topic, "created")
	}

	// Topic metadata takes a moment to propagate.
	time.Sleep(1 * time.Second)
	return nil
}
