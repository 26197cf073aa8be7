package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/sports-trading-agent/internal/alert"
	"github.com/cypherlabdev/sports-trading-agent/internal/config"
	"github.com/cypherlabdev/sports-trading-agent/internal/feed"
	"github.com/cypherlabdev/sports-trading-agent/internal/feed/apifutebol"
	"github.com/cypherlabdev/sports-trading-agent/internal/feed/httpx"
	"github.com/cypherlabdev/sports-trading-agent/internal/feed/theoddsapi"
	httpHandler "github.com/cypherlabdev/sports-trading-agent/internal/handler/http"
	"github.com/cypherlabdev/sports-trading-agent/internal/ledger"
	"github.com/cypherlabdev/sports-trading-agent/internal/messaging"
	"github.com/cypherlabdev/sports-trading-agent/internal/service"
	"github.com/cypherlabdev/sports-trading-agent/internal/signal"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("config/config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)
	logger.Info().Msg("starting sports-trading-agent")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create Redis quote store
	store := ledger.NewRedisStore(
		ledger.RedisStoreConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		},
		logger,
	)
	defer store.Close()

	// Test Redis connection
	if err := store.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")

	// Create optional Postgres history store
	var history service.History
	var historyStore *ledger.HistoryStore
	if cfg.Postgres.DSN != "" {
		historyStore, err = ledger.NewHistoryStore(cfg.Postgres.DSN, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to Postgres")
		}
		defer historyStore.Close()

		if err := historyStore.Migrate(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to run history migrations")
		}
		history = historyStore
		logger.Info().Msg("history store initialized")
	}

	// Create in-memory ledger and fixture index
	book := ledger.NewBook(cfg.Ledger.StaleAfter, logger)
	events := ledger.NewEventIndex()

	// Create signal engine
	baseStake := decimal.NewFromFloat(cfg.Signals.BaseStake)
	engine := signal.NewEngine(
		logger,
		signal.NewArbitrageDetector(decimal.NewFromFloat(cfg.Signals.MinSpread), baseStake),
		signal.NewDriftDetector(cfg.Signals.Drift.Enabled, decimal.NewFromFloat(cfg.Signals.Drift.MinDriftPercent), baseStake),
		signal.NewCycleDetector(cfg.Signals.Cycle.Enabled, cfg.Signals.Cycle.ToCycleParams()),
	)
	logger.Info().Msg("signal engine initialized")

	// Create alert dispatcher
	notifiers := buildNotifiers(cfg.Alerts, logger)
	var dedup *alert.Deduper
	if cfg.Alerts.DedupTTL > 0 {
		dedupClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer dedupClient.Close()
		dedup = alert.NewDeduper(dedupClient, cfg.Alerts.DedupTTL)
	}
	dispatcher := alert.NewDispatcher(
		alert.NewFilter(cfg.Alerts.MinConfidence, cfg.Alerts.MaxQuoteAge),
		dedup,
		cfg.Alerts.MaxPerMinute,
		notifiers,
		logger,
	)
	logger.Info().Int("notifiers", len(notifiers)).Msg("alert dispatcher initialized")

	// Create optional Kafka signal publisher
	var publisher service.Publisher
	if cfg.Kafka.SignalsTopic != "" {
		kafkaPublisher := messaging.NewKafkaPublisher(
			messaging.KafkaPublisherConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.SignalsTopic,
			},
			logger,
		)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	}

	// Create pipeline service
	agentService := service.NewAgentService(book, store, engine, history, dispatcher, publisher, logger)
	logger.Info().Msg("agent service initialized")

	// Start Kafka intake consumer for out-of-process collectors
	if cfg.Kafka.IntakeTopic != "" {
		consumer := messaging.NewKafkaConsumer(
			messaging.KafkaConsumerConfig{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.IntakeTopic,
				GroupID: cfg.Kafka.GroupID,
			},
			agentService,
			logger,
		)
		defer consumer.Close()

		go func() {
			if err := consumer.Start(ctx); err != nil {
				logger.Error().Err(err).Msg("Kafka consumer failed")
			}
		}()
	}

	// Create feed providers and poller
	oddsClient := theoddsapi.NewClient(
		theoddsapi.Config{
			APIKey:      cfg.Providers.TheOddsAPI.APIKey,
			Regions:     cfg.Providers.TheOddsAPI.Regions,
			Markets:     cfg.Providers.TheOddsAPI.Markets,
			DailyBudget: cfg.Providers.TheOddsAPI.DailyBudget,
		},
		httpx.NewClient(httpx.Config{RequestsPerSecond: 1, Burst: 2}),
		logger,
	)

	var fixtures feed.FixtureProvider
	if cfg.Providers.APIFutebol.APIKey != "" {
		fixtures = apifutebol.NewClient(
			apifutebol.Config{APIKey: cfg.Providers.APIFutebol.APIKey},
			httpx.NewClient(httpx.Config{RequestsPerSecond: 1, Burst: 2}),
			logger,
		)
	}

	poller := feed.NewPoller(
		agentService,
		oddsClient,
		fixtures,
		events,
		cfg.Providers.TheOddsAPI.Sports,
		cfg.Providers.PollInterval,
		logger,
	)
	go poller.Run(ctx)

	// Sweep stale ledger entries periodically
	go func() {
		ticker := time.NewTicker(cfg.Ledger.StaleAfter / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				book.Sweep(time.Now().UTC())
			}
		}
	}()

	// Initialize HTTP handler
	apiHandler := httpHandler.NewAPIHandler(agentService, events, poller, oddsClient.Budget(), logger)
	logger.Info().Msg("HTTP handler initialized")

	// Setup HTTP server routes
	mux := http.NewServeMux()

	// Health and monitoring endpoints
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyHandler(w, r, store)
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Register API routes
	apiHandler.RegisterRoutes(mux)
	logger.Info().Msg("API routes registered")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start HTTP server in goroutine
	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	ossignal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("shutting down gracefully...")

	// Cancel context to stop poller and consumer
	cancel()

	// Shutdown HTTP server
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	logger.Info().Msg("shutdown complete")
}

// buildNotifiers creates the configured notification channels.
func buildNotifiers(cfg config.AlertsConfig, logger zerolog.Logger) []alert.Notifier {
	var notifiers []alert.Notifier

	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := alert.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			logger.Error().Err(err).Msg("failed to initialize Telegram notifier")
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, alert.NewWebhookNotifier(cfg.WebhookURL))
	}

	return notifiers
}

// setupLogger configures the logger based on config
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set format
	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return log.Logger.With().Str("service", "trading-agent").Logger()
}

// healthHandler returns 200 if service is running
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// readyHandler returns 200 if service is ready to accept traffic
func readyHandler(w http.ResponseWriter, r *http.Request, store *ledger.RedisStore) {
	// Check Redis connection
	if err := store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Redis unavailable"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
