// cmd/activity-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"activity-signup/internal/api"
	"activity-signup/internal/common/aws"
	"activity-signup/internal/common/config"
	"activity-signup/internal/common/database"
	commonhttp "activity-signup/internal/common/http"
	"activity-signup/internal/common/logger"
	"activity-signup/internal/common/observability"
	"activity-signup/internal/notify"
	"activity-signup/internal/registry"
	"activity-signup/pkg/catalog"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config load failed", zap.Error(err))
	}

	zapLog, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		zap.NewExample().Fatal("logger init failed", zap.Error(err))
	}
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting activity server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx := context.Background()

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer func() { _ = obs.Shutdown(context.Background()) }()

	var tracing *observability.Tracing
	if cfg.Tracing.Enabled {
		tracing, err = observability.NewTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			zapLog.Fatal("tracing init failed", zap.Error(err))
		}
		defer func() { _ = tracing.Shutdown(context.Background()) }()
		zapLog.Info("Tracing enabled", zap.String("jaegerEndpoint", cfg.Tracing.JaegerEndpoint))
	}

	seed, err := loadSeed(cfg.Catalog)
	if err != nil {
		zapLog.Fatal("catalog load failed", zap.Error(err), zap.String("path", cfg.Catalog.Path))
	}
	zapLog.Info("Catalog loaded", zap.Int("activities", len(seed)))

	notifiers, cleanup := buildNotifiers(ctx, cfg.Notifications, zapLog)
	defer cleanup()

	reg := registry.New(seed,
		registry.WithNotifier(notifiers),
		registry.WithNotifyTimeout(config.GetDuration(cfg.Notifications.Timeout)),
		registry.WithLogger(log.WithFields(map[string]interface{}{"component": "registry"})),
	)

	var handlerOpts []api.Option
	if cfg.Server.StaticDir != "" {
		handlerOpts = append(handlerOpts, api.WithStaticDir(cfg.Server.StaticDir))
	}
	router := api.NewRouter(
		api.NewHandler(reg, log, handlerOpts...),
		api.RouterConfig{
			MetricsEnabled: cfg.Metrics.Enabled,
			MetricsPath:    cfg.Metrics.Path,
			Tracer:         tracing.Tracer(),
		},
		log,
		obs,
	)
	srv := commonhttp.NewServer(cfg.Server, router)

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}

	zapLog.Info("Activity server stopped gracefully")
}

func loadSeed(cfg config.CatalogConfig) ([]registry.Activity, error) {
	if cfg.Path == "" {
		return catalog.Default(), nil
	}
	return catalog.Load(cfg.Path)
}

// buildNotifiers connects every enabled channel. A channel that cannot be
// reached is skipped with an error log; the service still starts.
func buildNotifiers(ctx context.Context, cfg config.NotificationConfig, zapLog *zap.Logger) (notify.Notifier, func()) {
	var (
		out     notify.Multi
		closers []func() error
	)

	if cfg.Redis.Enabled {
		redis := database.NewRedis(cfg.Redis)
		err := retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Error("redis notifications disabled", zap.Error(err))
			_ = redis.Close()
		} else {
			zapLog.Info("Redis connected successfully", zap.String("channel", cfg.Redis.Channel))
			out = append(out, notify.NewRedisPublisher(redis, cfg.Redis.Channel))
			closers = append(closers, redis.Close)
		}
	}

	if cfg.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Email.Region)
		if err != nil {
			zapLog.Error("email notifications disabled", zap.Error(err))
		} else {
			out = append(out, notify.NewEmailNotifier(sesClient, cfg.Email.FromEmail))
			zapLog.Info("SES email notifications enabled", zap.String("region", cfg.Email.Region))
		}
	}

	if cfg.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.SNS.Region)
		if err != nil {
			zapLog.Error("sns notifications disabled", zap.Error(err))
		} else {
			out = append(out, notify.NewSNSNotifier(snsClient, cfg.SNS.TopicARN))
			zapLog.Info("SNS notifications enabled", zap.String("topic", cfg.SNS.TopicARN))
		}
	}

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				zapLog.Warn("error closing notifier", zap.Error(err))
			}
		}
	}

	if len(out) == 0 {
		return notify.NoOp{}, cleanup
	}
	return out, cleanup
}
