package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/azizikri/pawclub-functions/internal/auth"
	"github.com/azizikri/pawclub-functions/internal/config"
	httphandler "github.com/azizikri/pawclub-functions/internal/delivery/http"
	"github.com/azizikri/pawclub-functions/internal/delivery/kafka"
	"github.com/azizikri/pawclub-functions/internal/email"
	"github.com/azizikri/pawclub-functions/internal/logging"
	"github.com/azizikri/pawclub-functions/internal/repository"
	"github.com/azizikri/pawclub-functions/internal/scheduler"
	"github.com/azizikri/pawclub-functions/internal/usecase"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twmb/franz-go/pkg/kgo"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	pool, err := initDB(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool, "db/migrations"); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	if err := repository.CheckScopedRole(ctx, pool, cfg.DBScopedRole); err != nil {
		logger.Fatal().Err(err).Msg("scoped database role unavailable")
	}

	store := repository.New(pool, cfg.DBScopedRole)

	mailer := email.NewClient(cfg.PostmarkServerToken, cfg.EmailFrom)
	if !mailer.Configured() {
		logger.Warn().Msg("POSTMARK_SERVER_TOKEN not set, email tasks will fail")
	}
	runner := usecase.NewTaskRunner(store, mailer)

	var dispatcher usecase.Dispatcher
	var kafkaClient *kgo.Client
	var retryClient *kgo.Client

	if cfg.EventDriven() {
		brokers := strings.Split(cfg.KafkaBrokers, ",")
		kafkaClient, err = newConsumerClient(
			brokers,
			cfg.KafkaClientID,
			cfg.KafkaGroupID,
			kafka.TopicTaskRequest,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka client")
		}

		if err := kafka.EnsureTopics(ctx, kafkaClient, cfg); err != nil {
			logger.Warn().Err(err).Msg("failed to ensure topics")
		}

		dispatcher = kafka.NewPublisher(kafkaClient)

		consumer := kafka.NewConsumer(kafkaClient, runner, cfg.MaxAttempts())
		go consumer.Start(ctx)

		retryClient, err = newConsumerClient(
			brokers,
			cfg.KafkaClientID+"-retry",
			cfg.KafkaRetryGroupID,
			kafka.TopicTaskRetry,
		)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create retry kafka client")
		}
		retryConsumer := kafka.NewConsumer(retryClient, runner, cfg.MaxAttempts())
		go retryConsumer.StartRetry(ctx)
	} else {
		dispatcher = kafka.NewDirectDispatcher(runner)
	}

	service := usecase.NewService(store, dispatcher, usecase.Options{
		GracePeriod: cfg.GracePeriod(),
		PageSize:    cfg.Pagination(),
		AppBaseURL:  cfg.AppBaseURL,
	})

	if cfg.JWTSecret == "" {
		logger.Warn().Msg("JWT_SECRET not set, authenticated routes will reject every request")
	}
	handler := httphandler.NewHandler(service, auth.NewVerifier(cfg.JWTSecret), cfg.CronSecret)

	var sched *scheduler.Scheduler
	if cfg.Scheduler() {
		sched = scheduler.New(cfg.Interval(),
			scheduler.Job{Name: "expire-memberships", Run: func(ctx context.Context) error {
				_, err := service.ExpireMemberships(ctx)
				return err
			}},
			scheduler.Job{Name: "send-reminders", Run: func(ctx context.Context) error {
				_, err := service.SendReminders(ctx)
				return err
			}},
		)
		sched.Start(ctx)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: httphandler.NewRouter(handler, logger),
	}

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info().Str("port", cfg.AppPort).Bool("event_driven", cfg.EventDriven()).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}

	if sched != nil {
		sched.Stop()
	}
	if kafkaClient != nil {
		kafkaClient.Close()
	}
	if retryClient != nil {
		retryClient.Close()
	}

	wg.Wait()
	logger.Info().Msg("shutdown complete")
}

func initDB(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}

func newConsumerClient(brokers []string, clientID, groupID string, topics ...string) (*kgo.Client, error) {
	return kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
}
