package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/technest-ghazi/backend-bnpl/internal/common"
	"github.com/technest-ghazi/backend-bnpl/internal/config"
	"github.com/technest-ghazi/backend-bnpl/internal/events"
	"github.com/technest-ghazi/backend-bnpl/internal/notify"
	"github.com/technest-ghazi/backend-bnpl/internal/obs"
	"github.com/technest-ghazi/backend-bnpl/internal/order"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "bnpl")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	asynqOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url for task queue")
	}

	var webhook *notify.WebhookClient
	if cfg.NotifyWebhookURL != "" {
		webhook = notify.NewWebhookClient(cfg.NotifyWebhookURL, cfg.NotifyWebhookToken, cfg.WebhookTimeout)
	}
	dispatcher := &notify.Dispatcher{
		Email:       common.NopEmailSender{},
		AdminEmails: cfg.NotifyAdminEmails,
		Webhook:     webhook,
		Log:         logger,
	}

	taskClient := asynq.NewClient(asynqOpt)
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()
	bus := &events.Bus{
		Store:     &events.PgStore{Pool: pool},
		Scheduler: notify.Enqueuer{Client: taskClient, Queue: cfg.NotifyQueue},
	}
	orderSvc := &order.Service{
		Store:  &order.Store{Pool: pool},
		Events: bus,
		Log:    logger,
	}

	go runOverdueScanner(ctx, cfg, orderSvc, logger)

	srv := asynq.NewServer(asynqOpt, asynq.Config{
		Concurrency: envInt("WORKER_CONCURRENCY", 5),
		Queues:      map[string]int{cfg.NotifyQueue: 1},
		Logger:      asynqLogger{logger},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(notify.TaskOrderEvent, dispatcher.HandleTask)

	logger.Info().Str("queue", cfg.NotifyQueue).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

// runOverdueScanner periodically flags past-due installments and applies the
// late penalty. The order service emits overdue events for changed orders.
func runOverdueScanner(ctx context.Context, cfg *config.Config, svc *order.Service, logger zerolog.Logger) {
	interval := cfg.OverdueScanInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := svc.ScanOverdue(ctx, cfg.OverduePenalty, cfg.OverdueScanBatch)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("overdue scan failed")
				continue
			}
			if changed > 0 {
				logger.Info().Int("orders", changed).Msg("overdue scan flagged orders")
			}
		}
	}
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "bnpl-worker"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

// asynqLogger adapts zerolog to asynq's logging interface.
type asynqLogger struct {
	log zerolog.Logger
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug().Msg(sprint(args)) }
func (l asynqLogger) Info(args ...any)  { l.log.Info().Msg(sprint(args)) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn().Msg(sprint(args)) }
func (l asynqLogger) Error(args ...any) { l.log.Error().Msg(sprint(args)) }
func (l asynqLogger) Fatal(args ...any) { l.log.Fatal().Msg(sprint(args)) }

func sprint(args []any) string {
	return strings.TrimSpace(fmt.Sprintln(args...))
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}
