package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sportsbook/auth"
	"sportsbook/config"
	"sportsbook/database"
	"sportsbook/events"
	"sportsbook/metrics"
	"sportsbook/notify"
	"sportsbook/odds"
	"sportsbook/repository"
	"sportsbook/server"
	"sportsbook/service"
	"sportsbook/settlement"
	"sportsbook/slip"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()
	ConfigureLogging(cfg)

	log.WithField("environment", cfg.Environment).Info("Starting sportsbook...")

	// Initialize database connection
	log.Info("Connecting to database...")
	db, err := database.NewConnection(ctx, database.ConstructDatabaseURL(cfg.DatabaseURL, cfg.DatabaseName))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully")

	// Initialize event bus
	eventBus := events.NewBus()
	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)

	// Initialize services
	log.Info("Initializing services...")
	services := server.Services{
		Users:       service.NewUserService(uowFactory, cfg.UsernameChangeCooldown),
		Wagers:      service.NewWagerService(uowFactory),
		Settlement:  service.NewSettlementService(uowFactory),
		Deposits:    service.NewDepositService(uowFactory),
		Withdrawals: service.NewWithdrawalService(uowFactory),
		Admin:       service.NewAdminService(uowFactory),
	}

	appMetrics := metrics.New()
	appMetrics.Register(eventBus)

	// Redis backs slips and the odds cache when configured
	var slipStore slip.Store = slip.NewMemoryStore()
	var oddsCache odds.Cache
	if cfg.RedisAddr != "" {
		log.WithField("addr", cfg.RedisAddr).Info("Connecting to Redis...")
		rdb, err := database.NewRedisClient(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer closeRedis(rdb)
		slipStore = slip.NewRedisStore(rdb, cfg.SlipTTL)
		oddsCache = odds.NewRedisCache(rdb)
	} else {
		log.Warn("REDIS_ADDR not set, slips are kept in memory and odds are not cached")
	}

	oddsService := odds.NewService(odds.NewHTTPProvider(cfg.OddsAPIURL, cfg.OddsAPIKey, cfg.OddsRegions), oddsCache, cfg.OddsCacheTTL)
	oddsService.OnCacheHit = appMetrics.OddsCacheHit
	oddsService.OnUpstreamError = appMetrics.OddsUpstreamError

	if cfg.DiscordEnabled() {
		session, err := discordgo.New("")
		if err != nil {
			return fmt.Errorf("failed to create discord session: %w", err)
		}
		notify.NewPayoutNotifier(session, cfg.DiscordWebhookID, cfg.DiscordWebhookToken).Register(eventBus)
		log.Info("Payout notifications enabled")
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	errCh := make(chan error, 2)

	if cfg.KafkaEnabled() {
		writer := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaEventsTopic)
		defer func() {
			if err := writer.Close(); err != nil {
				log.WithError(err).Warn("Failed to close kafka writer")
			}
		}()
		events.NewKafkaForwarder(writer).Register(eventBus)

		reader := settlement.NewKafkaReader(cfg.KafkaBrokers, cfg.KafkaResultsTopic, cfg.KafkaGroupID)
		defer func() {
			if err := reader.Close(); err != nil {
				log.WithError(err).Warn("Failed to close kafka reader")
			}
		}()
		consumer := settlement.NewConsumer(reader, services.Settlement)
		consumer.OnMessage = appMetrics.SettlementMessage
		go func() {
			if err := consumer.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("settlement consumer stopped: %w", err)
			}
		}()
		log.WithField("brokers", cfg.KafkaBrokers).Info("Kafka forwarding and settlement enabled")
	}

	srv := server.New(server.Options{
		Services:        services,
		Tokens:          auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Odds:            oddsService,
		SlipStore:       slipStore,
		SlipIdleTimeout: cfg.SlipIdleTimeout,
		Health:          db,
		Metrics:         appMetrics,
	})
	go func() {
		if err := srv.Start(":" + cfg.HTTPPort); err != nil {
			errCh <- err
		}
	}()

	log.Infof("Sportsbook is running in %s mode...", cfg.Environment)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		log.WithError(runErr).Error("Component failed, shutting down")
	}

	log.Info("Shutting down...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server did not shut down cleanly")
	}

	// Let committed events reach their handlers before the pool closes
	drained := make(chan struct{})
	go func() {
		eventBus.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout exceeded while draining events")
	}

	log.Info("Shutdown completed")
	return runErr
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		log.WithError(err).Warn("Failed to close redis client")
	}
}
