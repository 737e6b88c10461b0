package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sawahraya/backend-beras/internal/common"
	"github.com/sawahraya/backend-beras/internal/config"
	"github.com/sawahraya/backend-beras/internal/events"
	"github.com/sawahraya/backend-beras/internal/loyalty"
	"github.com/sawahraya/backend-beras/internal/notify"
	"github.com/sawahraya/backend-beras/internal/obs"
	"github.com/sawahraya/backend-beras/internal/order"
	"github.com/sawahraya/backend-beras/internal/pricing"
	"github.com/sawahraya/backend-beras/internal/store"
)

// The worker consumes background tasks enqueued by the API, currently the
// post-checkout loyalty evaluation. Task retries are safe: evaluation is
// idempotent per qualifying order.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Str("component", "worker").Logger()

	obs.MustRegisterDomainMetrics(envOrDefault("OBS_METRICS_NAMESPACE", "beras"), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	rowStore := store.NewPG(pool)
	metrics := obs.DomainMetrics{}

	emailNotifier := notify.EmailNotifier{
		Mail:    common.NopEmailSender{},
		Enabled: cfg.NotifyEmailEnabled,
		From:    cfg.NotifyEmailFrom,
		Metrics: metrics,
	}
	bus := &events.Bus{
		Store:     rowStore,
		Notifiers: []events.Notifier{emailNotifier},
	}

	orderSvc := &order.Service{Store: rowStore}
	engine := &loyalty.Engine{
		Store:  rowStore,
		Orders: loyalty.OrderHistory{Orders: orderSvc},
		Policy: loyalty.Policy{
			MinOrders:   cfg.LoyaltyMinOrders,
			MinSpend:    pricing.Money(cfg.LoyaltyMinSpend),
			DiscountBps: cfg.LoyaltyDiscountBps,
			ExtraBps:    cfg.LoyaltyExtraBps,
		},
		Events:  bus,
		Metrics: metrics,
		Logger:  &logger,
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisOpts.Addr, Password: redisOpts.Password, DB: redisOpts.DB},
		asynq.Config{
			Concurrency: 5,
			Logger:      asynqLogger{logger: logger},
		},
	)
	mux := asynq.NewServeMux()
	mux.Handle(loyalty.TypeEvaluate, loyalty.TaskHandler{Engine: engine})

	done := make(chan error, 1)
	go func() { done <- srv.Run(mux) }()

	logger.Info().Msg("worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		srv.Shutdown()
		<-done
	case err := <-done:
		if err != nil {
			logger.Fatal().Err(err).Msg("worker exited unexpectedly")
		}
	}
}

// asynqLogger bridges asynq's logger interface onto zerolog.
type asynqLogger struct {
	logger zerolog.Logger
}

func (l asynqLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Info(args ...interface{})  { l.logger.Info().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Error(args ...interface{}) { l.logger.Error().Msg(fmt.Sprint(args...)) }
func (l asynqLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
