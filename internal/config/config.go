package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Database DatabaseConfig
	Stripe   StripeConfig
	Uploads  UploadConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RedisConfig struct {
	Addr string
}

type KafkaConfig struct {
	Brokers  []string
	GroupID  string
	Topics   TopicConfig
	MockMode bool
	Enabled  bool
}

type DatabaseConfig struct {
	Host         string
	Port         string
	Username     string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

type TopicConfig struct {
	BookingCreated      string
	BookingUpdated      string
	PaymentSucceeded    string
	PaymentWindowClosed string
	TicketStatusChanged string
}

type StripeConfig struct {
	SuccessURL string
	CancelURL  string
	Currency   string
}

type UploadConfig struct {
	HostURL string
	APIKey  string
}

func Load() *Config {
	kafkaEnabled := getEnvBool("KAFKA_ENABLED", true)
	mockMode := getEnvBool("KAFKA_MOCK_MODE", false)

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", ":8084"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Username:     getEnv("DB_USERNAME", "booking_user"),
			Password:     getEnv("DB_PASSWORD", "booking_pass"),
			Database:     getEnv("DB_NAME", "booking_gateway"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  time.Duration(getEnvInt("DB_MAX_LIFETIME_MINUTES", 5)) * time.Minute,
		},
		Kafka: KafkaConfig{
			Brokers:  []string{getEnv("KAFKA_BROKERS", "localhost:9092")},
			GroupID:  getEnv("KAFKA_GROUP_ID", "booking-gateway-group"),
			Enabled:  kafkaEnabled,
			MockMode: mockMode,
			Topics: TopicConfig{
				BookingCreated:      getEnv("KAFKA_TOPIC_BOOKING_CREATED", "ticketly.booking.created"),
				BookingUpdated:      getEnv("KAFKA_TOPIC_BOOKING_UPDATED", "ticketly.booking.updated"),
				PaymentSucceeded:    getEnv("KAFKA_TOPIC_PAYMENT_SUCCEEDED", "ticketly.payment.succeeded"),
				PaymentWindowClosed: getEnv("KAFKA_TOPIC_PAYMENT_WINDOW", "ticketly.booking.payment_window.closed"),
				TicketStatusChanged: getEnv("KAFKA_TOPIC_TICKET_STATUS", "ticketly.ticket.status"),
			},
		},
		Stripe: StripeConfig{
			SuccessURL: getEnv("STRIPE_SUCCESS_URL", "http://localhost:5173/dashboard/payment-success"),
			CancelURL:  getEnv("STRIPE_CANCEL_URL", "http://localhost:5173/dashboard/payment-cancelled"),
			Currency:   getEnv("STRIPE_CURRENCY", "bdt"),
		},
		Uploads: UploadConfig{
			HostURL: getEnv("IMAGE_HOST_URL", "https://api.imgbb.com/1/upload"),
			APIKey:  getEnv("IMAGE_HOST_API_KEY", ""),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
