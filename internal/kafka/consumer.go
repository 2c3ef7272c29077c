package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-booking/internal/logger"
)

type Consumer struct {
	reader *kafka.Reader
	log    *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, log: log}
}

// Start consumes until ctx is cancelled, handing each message's value to
// handler. Unreadable messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(key, value []byte)) {
	c.log.LogKafka("CONSUMER", c.reader.Config().Topic, "consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Error("KAFKA", fmt.Sprintf("failed to read message: %v", err))
			continue
		}
		handler(msg.Key, msg.Value)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
