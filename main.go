package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-booking/internal/analytics"
	"ms-booking/internal/analytics/analytics_api"
	"ms-booking/internal/auth"
	"ms-booking/internal/booking"
	booking_db "ms-booking/internal/booking/db"
	"ms-booking/internal/booking/booking_api"
	bookingredis "ms-booking/internal/booking/redis"
	"ms-booking/internal/config"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
	"ms-booking/internal/payment"
	"ms-booking/internal/payment/boardingpass"
	"ms-booking/internal/payment/payment_api"
	"ms-booking/internal/payment/services"
	"ms-booking/internal/payment/storage"
	"ms-booking/internal/rbac"
	"ms-booking/internal/sse"
	"ms-booking/internal/tickets"
	ticket_db "ms-booking/internal/tickets/db"
	"ms-booking/internal/tickets/ticket_api"
	"ms-booking/internal/uploads"
	"ms-booking/internal/users"
	users_db "ms-booking/internal/users/db"
	"ms-booking/internal/users/user_api"
)

// subscribePaymentWindowExpiry listens for Redis key expiry events and turns
// an expired payment window into a Kafka notification. The booking row is
// never mutated here: expiry is a derived display state, and the dashboards
// re-derive it from the departure time on their own.
func subscribePaymentWindowExpiry(rdb *redis.Client, producer *kafka.Producer, log *logger.Logger) {
	ctx := context.Background()

	val, err := rdb.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		log.Error("REDIS", fmt.Sprintf("Failed to get keyspace config: %v", err))
	} else if len(val) >= 2 {
		setting, _ := val[1].(string)
		if !strings.Contains(setting, "x") || !strings.Contains(setting, "E") {
			log.Warn("REDIS", "Keyspace notifications not configured for expiry events")
		}
	}

	pubsub := rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	log.Info("REDIS", "Subscribed to Redis keyevent expired notifications")

	go func() {
		for msg := range pubsub.Channel() {
			if !strings.HasPrefix(msg.Payload, "payment_window:") {
				continue
			}
			bookingID := strings.TrimPrefix(msg.Payload, "payment_window:")
			log.LogBooking("WINDOW_CLOSED", bookingID, "payment window expired without payment")

			event := kafka.PaymentWindowClosedEvent{
				BookingID: bookingID,
				ExpiredAt: time.Now().UTC().Format(time.RFC3339),
			}
			if err := producer.PublishPaymentWindowClosed(event); err != nil {
				log.Error("KAFKA", fmt.Sprintf("Failed to publish payment window event for %s: %v", bookingID, err))
			}
		}
	}()
}

// consumePaymentEvents feeds confirmations from the standalone payment
// service into the SSE fan-out, so dashboards connected to this gateway see
// a booking flip to paid even when another process confirmed it.
func consumePaymentEvents(ctx context.Context, cfg config.KafkaConfig, bookingDB *booking_db.DB, emitter *sse.BookingEventEmitter, log *logger.Logger) {
	consumer := kafka.NewConsumer(cfg.Brokers, cfg.Topics.PaymentSucceeded, cfg.GroupID, log)

	go func() {
		defer consumer.Close()
		consumer.Start(ctx, func(_, value []byte) {
			var record models.Payment
			if err := json.Unmarshal(value, &record); err != nil {
				log.Error("KAFKA", fmt.Sprintf("Failed to decode payment event: %v", err))
				return
			}
			b, err := bookingDB.GetBookingByID(ctx, record.BookingID)
			if err != nil {
				log.Error("KAFKA", fmt.Sprintf("Payment event for unknown booking %s: %v", record.BookingID, err))
				return
			}
			emitter.EmitBookingEvent(*b)
		})
	}()
}

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Username,
			cfg.Database.Password, cfg.Database.Database)
	}

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("PostgreSQL connection failed: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	// The payment window gate depends on expired-key events.
	if _, err := redisClient.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result(); err != nil {
		log.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		log.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))
	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Booking Gateway initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	migrationRunner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := migrationRunner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	defer migrationRunner.Close()

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka, log)
		defer producer.Close()
		if !cfg.Kafka.MockMode {
			if err := kafka.EnsureTopicsExist(cfg.Kafka, log); err != nil {
				log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
			}
		}
		log.Info("KAFKA", "Kafka producer initialized")
	} else {
		log.Warn("KAFKA", "Kafka disabled, events will not be published")
	}

	// Services.
	userDB := &users_db.DB{Bun: bunDB}
	ticketDB := &ticket_db.DB{Bun: bunDB}
	bookingDB := &booking_db.DB{Bun: bunDB}

	resolver := rbac.NewResolver(userDB, redisClient, log)
	guard := rbac.NewGuard(resolver, log)

	var ticketService *tickets.TicketService
	var bookingService *booking.Service
	seatHold := bookingredis.NewHold(redisClient)

	if producer != nil {
		ticketService = tickets.NewTicketService(ticketDB, producer)
		bookingService = booking.NewService(bookingDB, ticketService, ticketDB, seatHold, producer)
	} else {
		ticketService = tickets.NewTicketService(ticketDB, nil)
		bookingService = booking.NewService(bookingDB, ticketService, ticketDB, seatHold, nil)
	}

	userService := users.NewUserService(userDB, resolver, ticketDB, log)

	paymentStore, err := storage.NewPostgreSQLStoreWithDB(bunDB.DB, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Payment storage init failed: %v", err))
	}

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

	var paymentService *payment.Service
	if producer != nil {
		paymentService = payment.NewService(stripeService, bookingDB, paymentStore, passGenerator, seatHold, producer, log)
	} else {
		paymentService = payment.NewService(stripeService, bookingDB, paymentStore, passGenerator, seatHold, nil, log)
	}

	analyticsService := analytics.NewService(bunDB)

	emitter := sse.NewBookingEventEmitter()
	imageRelay := uploads.NewRelay(cfg.Uploads, log)

	// Handlers.
	ticketHandler := ticket_api.NewHandler(ticketService, log)
	analyticsHandler := analytics_api.NewHandler(analyticsService, log)
	bookingHandler := booking_api.NewHandler(bookingService, emitter, log)
	userHandler := user_api.NewHandler(userService, resolver, log)
	paymentHandler := payment_api.NewHandler(paymentService, log)
	uploadHandler := uploads.NewHandler(imageRelay, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public routes ---
	r.Get("/tickets/approved", ticketHandler.ListApproved)
	r.Get("/tickets/advertised", ticketHandler.ListAdvertised)
	r.Get("/tickets/{ticketId}", ticketHandler.GetTicket)
	log.Info("ROUTER", "Public ticket routes registered")

	// --- Protected routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		r.Use(guard.RequireAuthenticated)
		r.Use(guard.ResolveRole)
		log.Info("AUTH", "Auth and role middleware applied to protected routes")

		r.Post("/users/login", userHandler.RegisterLogin)
		r.Get("/users/{email}/role", userHandler.GetRole)

		// Role checks for the ticket PATCH are inside the handler: the
		// route multiplexes admin decisions and vendor edits.
		r.Get("/tickets", ticketHandler.ListTickets)
		r.Patch("/tickets/{ticketId}", ticketHandler.PatchTicket)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireRole(rbac.RoleVendor))
			r.Post("/tickets", ticketHandler.CreateTicket)
			r.Delete("/tickets/{ticketId}", ticketHandler.DeleteTicket)
			r.Get("/book-ticket", bookingHandler.ListRequested)
			r.Patch("/update-booking/{bookingId}", bookingHandler.UpdateBooking)
			r.Get("/revenue-overview", analyticsHandler.RevenueOverview)
			r.Post("/upload-image", uploadHandler.UploadImage)
		})
		log.Info("ROUTER", "Vendor routes registered")

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireRole(rbac.RoleUser))
			r.Post("/book-ticket", bookingHandler.BookTicket)
			r.Get("/user-bookings", bookingHandler.ListUserBookings)
			r.Get("/user-bookings/countdown", bookingHandler.HandleCountdown)
			r.Post("/payment-checkout-session", paymentHandler.CreateCheckoutSession)
			r.Patch("/payment-success", paymentHandler.ConfirmPayment)
			r.Get("/payment-history", paymentHandler.PaymentHistory)
		})
		log.Info("ROUTER", "Buyer routes registered")

		r.Get("/booking-events", bookingHandler.HandleBookingEvents)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireRole(rbac.RoleAdmin))
			r.Get("/users", userHandler.ListUsers)
			r.Patch("/user/{userId}", userHandler.PatchUser)
		})
		log.Info("ROUTER", "Admin routes registered")
	})

	// WriteTimeout stays unset: the SSE streams hold their response open
	// for as long as the client watches.
	server := &http.Server{
		Addr:        cfg.Server.Port,
		Handler:     r,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	if producer != nil {
		log.Info("REDIS", "Starting payment window expiry subscription")
		subscribePaymentWindowExpiry(redisClient, producer, log)

		if !cfg.Kafka.MockMode {
			log.Info("KAFKA", "Starting payment event consumer")
			consumePaymentEvents(ctx, cfg.Kafka, bookingDB, emitter, log)
		}
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Booking Gateway running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server shutdown failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Booking Gateway shutdown complete")
	}
}
