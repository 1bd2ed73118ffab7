package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"locadz/internal/infra/bootstrap"
	"locadz/internal/infra/broker/kafka"
	"locadz/internal/infra/config"
	mongostore "locadz/internal/infra/db/mongo"
	ginserver "locadz/internal/infra/http/gin"
	"locadz/internal/infra/inbox"
	redislock "locadz/internal/infra/locks/redis"
	"locadz/internal/infra/obs"
	infraoutbox "locadz/internal/infra/outbox"
	"locadz/internal/infra/security"
	"locadz/internal/infra/storage/memory"
	s3storage "locadz/internal/infra/storage/s3"
)

const devJWTSecret = "locadz-dev-secret"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	backends := bootstrap.MemoryBackends(cfg, memory.NewStore())
	var readiness []func(context.Context) error
	var cleanups []func(context.Context)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i](shutdownCtx)
		}
	}()

	var outboxStore *infraoutbox.Store
	var payoutsInbox kafka.Inbox = memory.NewInbox()
	if cfg.MongoURI != "" {
		client, err := mongostore.New(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func(ctx context.Context) {
			if err := client.Disconnect(ctx); err != nil {
				logger.Error("mongo disconnect failed", "error", err)
			}
		})
		if err := client.EnsureIndexes(ctx); err != nil {
			return err
		}
		outboxStore = infraoutbox.NewStore(client.DB)
		if err := outboxStore.EnsureIndexes(ctx); err != nil {
			return err
		}
		inboxStore := inbox.NewStore(client.DB, "payouts")
		if err := inboxStore.EnsureIndexes(ctx); err != nil {
			return err
		}
		payoutsInbox = inboxStore
		backends.UoW = mongostore.NewFactory(client.DB)
		idempotency := mongostore.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
		if err := idempotency.EnsureIndexes(ctx); err != nil {
			return err
		}
		backends.Idempotency = idempotency
		backends.Outbox = outboxStore
		readiness = append(readiness, client.Ping)
		logger.Info("mongo storage enabled", "database", cfg.MongoDB)
	} else {
		logger.Warn("MONGO_URI not set, using in-memory storage")
	}

	if cfg.RedisAddr != "" {
		rdb := redislock.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		cleanups = append(cleanups, func(context.Context) { _ = rdb.Close() })
		locker := redislock.NewLocker(rdb)
		backends.Locker = locker
		readiness = append(readiness, locker.Ping)
		logger.Info("redis locks enabled", "addr", cfg.RedisAddr)
	}

	if cfg.S3Endpoint != "" {
		evidence, err := s3storage.NewClient(cfg.S3Endpoint, cfg.S3PublicEndpoint, cfg.S3UseSSL, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, logger)
		if err != nil {
			return err
		}
		backends.Evidence = evidence
		logger.Info("s3 evidence storage enabled", "bucket", cfg.S3Bucket)
	} else if !isLocalEnv(cfg.Env) {
		backends.Evidence = s3storage.NoopStorage{}
		logger.Warn("S3_ENDPOINT not set, payment proof uploads disabled")
	}

	verifier, err := tokenVerifier(cfg, logger)
	if err != nil {
		return err
	}

	app, err := bootstrap.NewApplication(bootstrap.Options{
		Config:   cfg,
		Backends: backends,
		Verifier: verifier,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	if _, err := bootstrap.LoadListingFixtures(ctx, backends.UoW, cfg.ListingsFixture, logger); err != nil {
		logger.Warn("listing fixtures load failed", "error", err, "path", cfg.ListingsFixture)
	}

	if len(cfg.KafkaBrokers) > 0 {
		if err := startKafka(ctx, cfg, app, outboxStore, payoutsInbox, logger, &cleanups); err != nil {
			return err
		}
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{
		Ready: func(ctx context.Context) error {
			for _, check := range readiness {
				if err := check(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	}, app.Handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}

// startKafka relays the Mongo outbox to Kafka and consumes payout records.
func startKafka(ctx context.Context, cfg config.Config, app *bootstrap.Application, store *infraoutbox.Store, payoutsInbox kafka.Inbox, logger *slog.Logger, cleanups *[]func(context.Context)) error {
	if store != nil {
		producer, err := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil)
		if err != nil {
			return err
		}
		*cleanups = append(*cleanups, func(context.Context) { _ = producer.Close() })
		worker := &infraoutbox.Worker{
			Store:       store,
			Producer:    producer,
			Logger:      logger,
			Interval:    cfg.OutboxPollInterval,
			TopicPrefix: cfg.KafkaTopicPrefix,
			Backoff:     cfg.RetryBackoff,
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("outbox worker stopped", "error", err)
			}
		}()
	} else {
		logger.Warn("kafka configured without mongo, domain events stay in memory")
	}

	consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, &kafka.PayoutsHandler{
		Bus:    app.Commands,
		Inbox:  payoutsInbox,
		Logger: logger,
	}, logger)
	if err != nil {
		return err
	}
	*cleanups = append(*cleanups, func(context.Context) { _ = consumer.Close() })
	go func() {
		if err := consumer.Run(ctx, []string{cfg.KafkaTopicPrefix + kafka.PayoutsTopic}); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("payouts consumer stopped", "error", err)
		}
	}()
	return nil
}

func tokenVerifier(cfg config.Config, logger *slog.Logger) (*security.TokenVerifier, error) {
	secret := cfg.JWTSecret
	if secret == "" && isLocalEnv(cfg.Env) {
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	return security.NewTokenVerifier(secret, cfg.JWTIssuer)
}

func isLocalEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test", "debug":
		return true
	}
	return false
}
