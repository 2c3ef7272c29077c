package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	booking_db "ms-booking/internal/booking/db"
	bookingredis "ms-booking/internal/booking/redis"
	"ms-booking/internal/config"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/payment"
	"ms-booking/internal/payment/boardingpass"
	handlers "ms-booking/internal/payment/handler"
	"ms-booking/internal/payment/services"
	"ms-booking/internal/payment/storage"

	"github.com/go-redis/redis/v8"
)

// Standalone payment service. Runs the same payment orchestration as the
// gateway behind a gin surface, for deployments that isolate money traffic.
func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Payment Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	cfg := config.Load()
	ctx := context.Background()

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Username,
			cfg.Database.Password, cfg.Database.Database)
	}

	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := sqldb.Ping(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}
	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	defer redisClient.Close()

	paymentStore, err := storage.NewPostgreSQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Payment storage init failed: %v", err))
	}
	defer paymentStore.Close()

	stripeService, err := services.NewStripeService(cfg.Stripe, log)
	if err != nil {
		log.Fatal("STRIPE", fmt.Sprintf("Stripe init failed: %v", err))
	}

	passSecret := os.Getenv("BOARDING_PASS_SECRET")
	if passSecret == "" {
		passSecret = "ms-booking-dev-secret"
		log.Warn("CONFIG", "BOARDING_PASS_SECRET not set, using development secret")
	}
	passGenerator := boardingpass.NewGenerator(passSecret)

	var producer *kafka.Producer
	var paymentService *payment.Service
	bookingDB := &booking_db.DB{Bun: bunDB}
	seatHold := bookingredis.NewHold(redisClient)

	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka, log)
		defer producer.Close()
		paymentService = payment.NewService(stripeService, bookingDB, paymentStore, passGenerator, seatHold, producer, log)
	} else {
		paymentService = payment.NewService(stripeService, bookingDB, paymentStore, passGenerator, seatHold, nil, log)
	}

	handler := handlers.NewStripeHandler(paymentService, paymentStore, log)

	router := gin.Default()
	api := router.Group("/api/payment")
	{
		api.POST("/checkout-session", handler.CreateCheckoutSession)
		api.PATCH("/success", handler.ConfirmPayment)
		api.GET("/history", handler.PaymentHistory)
		api.GET("/booking/:bookingId", handler.GetPaymentByBooking)
		api.GET("/health", handler.HealthCheck)
	}

	port := os.Getenv("PAYMENT_SERVICE_PORT")
	if port == "" {
		port = ":8085"
	}

	server := &http.Server{
		Addr:    port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Payment Service running on %s", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Payment Service shutdown complete")
	}
}
