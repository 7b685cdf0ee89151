package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/medtrack/pharmacy-portal/internal/alert"
	alerthttp "github.com/medtrack/pharmacy-portal/internal/alert/delivery/http"
	alertdomain "github.com/medtrack/pharmacy-portal/internal/alert/domain"
	alertquery "github.com/medtrack/pharmacy-portal/internal/alert/usecase/query"
	chatclient "github.com/medtrack/pharmacy-portal/internal/chat/client"
	chatdomain "github.com/medtrack/pharmacy-portal/internal/chat/domain"
	invrepo "github.com/medtrack/pharmacy-portal/internal/inventory/repository"
	"github.com/medtrack/pharmacy-portal/internal/notification"
	notifhttp "github.com/medtrack/pharmacy-portal/internal/notification/delivery/http"
	notifdomain "github.com/medtrack/pharmacy-portal/internal/notification/domain"
	"github.com/medtrack/pharmacy-portal/internal/notification/usecase/command"
	notifquery "github.com/medtrack/pharmacy-portal/internal/notification/usecase/query"
	"github.com/medtrack/pharmacy-portal/internal/relay"
	relayhttp "github.com/medtrack/pharmacy-portal/internal/relay/delivery/http"
	"github.com/medtrack/pharmacy-portal/internal/scheduler"
	"github.com/medtrack/pharmacy-portal/kafka"
	"github.com/medtrack/pharmacy-portal/pkg/database"
	"github.com/medtrack/pharmacy-portal/pkg/logger"
	"github.com/medtrack/pharmacy-portal/pkg/tracing"
)

func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "portal-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logLevel := getEnv("LOG_LEVEL", "info")
	logger.SetLevel(logLevel)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Str("log_level", logLevel).
		Msg("Starting portal service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(shutdownCtx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "portaldb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// The medicines table belongs to the store system; the portal only
	// migrates its own notifications table.
	if err := db.AutoMigrate(&notifdomain.Notification{}); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Redis for the scheduler snapshot mirror
	redisClient := newRedisClient()

	// Kafka publisher (optional: disabled when no brokers configured)
	var publisher notification.EventPublisher
	var kafkaPublisher *kafka.Publisher
	brokers := kafkaBrokers()
	if len(brokers) > 0 {
		kafkaPublisher, err = kafka.NewPublisher(brokers)
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to create kafka publisher - notification events disabled")
		} else {
			publisher = kafkaPublisher
			defer kafkaPublisher.Close()
		}
	}

	// Notification aggregator with Wire DI
	aggregator, err := notification.InitializeAggregator(db, publisher)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize aggregator")
	}

	// Alert handler with Wire DI
	alertHandler, err := alert.InitializeHTTPHandler(db)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize alert handler")
	}

	notificationHandler := notifhttp.NewNotificationHandler(aggregator)

	// Relay: each detached surface gets its own messaging client
	messagingURL := getEnv("MESSAGING_SERVICE_URL", "http://localhost:8081")
	chatRelay := relay.NewRelay(func() relay.ChatBackend {
		return chatclient.NewClient(messagingURL)
	})
	relayHandler := relayhttp.NewRelayHandler(chatRelay)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kafka consumer: chat message events feed the recipient's notifications
	if len(brokers) > 0 {
		startChatConsumer(ctx, brokers, aggregator)
	}

	// Refresh scheduler for the branch poll snapshot
	branchID := uintEnv("BRANCH_ID", 0)
	recipientID := uintEnv("BRANCH_MANAGER_ID", 0)
	sched := newScheduler(db, aggregator, branchID, recipientID, redisClient)
	sched.Start(ctx)
	defer sched.Stop()

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8080")
	go startHTTPServer(alertHandler, notificationHandler, relayHandler, sqlDB, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

// newScheduler builds the refresh loop: evaluate the branch snapshot,
// ingest the alert events for the branch manager's feed, and publish the
// poll payload plus unread summary. A recipient of 0 skips the feed leg.
func newScheduler(db *gorm.DB, aggregator *notification.Aggregator, branchID, recipientID uint, cache *redis.Client) *scheduler.Scheduler {
	repo := invrepo.NewGormSnapshotRepositoryWithTracing(db)
	evaluator := alertquery.NewEvaluateAlertsHandler(repo)

	pull := func(ctx context.Context) (alertdomain.PollPayload, int64, error) {
		events, err := evaluator.Handle(alertquery.EvaluateAlertsQuery{BranchID: branchID})
		if err != nil {
			return alertdomain.PollPayload{}, 0, err
		}

		var unread int64
		if recipientID != 0 {
			if err := aggregator.Ingest(ctx, command.IngestEventsCommand{
				RecipientID: recipientID,
				BranchID:    branchID,
				AlertEvents: events,
			}); err != nil {
				return alertdomain.PollPayload{}, 0, err
			}

			unread, err = aggregator.UnreadCount(notifquery.UnreadCountQuery{RecipientID: recipientID})
			if err != nil {
				return alertdomain.PollPayload{}, 0, err
			}
		}

		return alertdomain.BuildPollPayload(events), unread, nil
	}

	sink := scheduler.SinkFunc(func(s scheduler.Snapshot) {
		logger.Logger.Info().
			Uint64("generation", s.Generation).
			Bool("failed", s.Failed).
			Int("low_stock", len(s.Alerts.LowStock)).
			Int("expiring_soon", len(s.Alerts.ExpiringSoon)).
			Int("expired", len(s.Alerts.Expired)).
			Int64("unread_count", s.UnreadCount).
			Msg("Poll snapshot refreshed")
	})

	return scheduler.New(branchID, pull, sink, cache)
}

func startChatConsumer(ctx context.Context, brokers []string, aggregator *notification.Aggregator) {
	groupID := getEnv("KAFKA_GROUP_ID", "portal-notifications")
	consumer, err := kafka.NewConsumer(brokers, groupID, []string{kafka.TopicChatMessages})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to create kafka consumer - chat notifications disabled")
		return
	}

	consumer.RegisterHandler(kafka.EventTypeChatMessageSent, func(ctx context.Context, event kafka.ChatMessageEvent) error {
		return aggregator.Ingest(ctx, command.IngestEventsCommand{
			RecipientID: event.RecipientID,
			BranchID:    event.BranchID,
			ChatEvents: []chatdomain.Event{{
				ConversationID: event.ConversationID,
				MessageID:      event.MessageID,
				SenderID:       event.SenderID,
				SenderName:     event.SenderName,
				RecipientID:    event.RecipientID,
				Preview:        event.Preview,
				Timestamp:      event.Timestamp,
			}},
		})
	})

	if err := consumer.Start(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to start kafka consumer")
		return
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Str("topic", kafka.TopicChatMessages).
		Msg("Kafka consumer started")
}

func startHTTPServer(alertHandler *alerthttp.AlertHandler, notificationHandler *notifhttp.NotificationHandler, relayHandler *relayhttp.RelayHandler, db *sql.DB, port string) {
	router := mux.NewRouter()

	alertHandler.RegisterRoutes(router)
	notificationHandler.RegisterRoutes(router)
	relayHandler.RegisterRoutes(router)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	if err := http.ListenAndServe(":"+port, c.Handler(router)); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
	}
}

func newRedisClient() *redis.Client {
	redisAddr := getEnv("REDIS_ADDR", "localhost:6379")
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Logger.Warn().
			Err(err).
			Str("redis_addr", redisAddr).
			Msg("Failed to connect to Redis - snapshot mirror disabled")
		return nil
	}

	logger.Logger.Info().Str("redis_addr", redisAddr).Msg("Connected to Redis")
	return client
}

func kafkaBrokers() []string {
	raw := getEnv("KAFKA_BROKERS", "")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func uintEnv(key string, defaultValue uint) uint {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		logger.Logger.Warn().Str("key", key).Str("value", raw).Msg("Invalid numeric environment value")
		return defaultValue
	}
	return uint(v)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
