// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"medishift-notifications/internal/common/camunda"
	"medishift-notifications/internal/common/config"
	"medishift-notifications/internal/common/database"
	"medishift-notifications/internal/common/graph"
	"medishift-notifications/internal/common/infobip"
	"medishift-notifications/internal/common/logger"
	"medishift-notifications/internal/common/observability"
	"medishift-notifications/internal/store"

	"medishift-notifications/internal/workers/notification/bankingupdate"
	"medishift-notifications/internal/workers/notification/bulkdispatch"
	"medishift-notifications/internal/workers/notification/dispatch"
	"medishift-notifications/internal/workers/notification/shiftassignment"
)

// notificationWorker is the common surface of the registered handlers.
type notificationWorker interface {
	Register() error
	Close()
	GetTaskType() string
	IsEnabled() bool
}

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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	// Wrap zap logger with our logger interface
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting notification worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("notification-worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClient(cfg.Camunda.BrokerAddress)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redisClient *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redisClient, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redisClient.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redisClient.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Delivery Providers & Stores ---
	mailer := graph.NewMailer(cfg.Providers.Microsoft, log)
	smsClient := infobip.NewClient(cfg.Providers.Infobip, log)

	logs := store.NewNotificationLogs(pg.GetDB(), esClient, cfg.Notifications.LogsIndex, log)
	profiles := store.NewProfiles(pg.GetDB(), cfg.Notifications.DefaultCountryPrefix)
	codes := store.NewVerificationCodes(redisClient.GetClient())

	zapLog.Info("Delivery providers and stores initialized")

	// --- Register Notification Workers ---
	var workers []notificationWorker

	dispatchHandler, err := dispatch.NewHandler(dispatch.HandlerOptions{
		AppConfig: cfg,
		Camunda:   camundaClient,
		Logger:    log,
		Dependencies: dispatch.ServiceDependencies{
			Email: mailer,
			SMS:   smsClient,
			Logs:  logs,
			Codes: codes,
		},
	})
	if err != nil {
		zapLog.Fatal("failed to create dispatch handler", zap.Error(err))
	}
	workers = append(workers, dispatchHandler)

	bulkHandler, err := bulkdispatch.NewHandler(bulkdispatch.HandlerOptions{
		AppConfig: cfg,
		Camunda:   camundaClient,
		Logger:    log,
		Dependencies: bulkdispatch.ServiceDependencies{
			Email:    mailer,
			SMS:      smsClient,
			Logs:     logs,
			Profiles: profiles,
		},
	})
	if err != nil {
		zapLog.Fatal("failed to create bulk-dispatch handler", zap.Error(err))
	}
	workers = append(workers, bulkHandler)

	shiftHandler, err := shiftassignment.NewHandler(shiftassignment.HandlerOptions{
		AppConfig: cfg,
		Camunda:   camundaClient,
		Logger:    log,
		Dependencies: shiftassignment.ServiceDependencies{
			Email:    mailer,
			SMS:      smsClient,
			Logs:     logs,
			Profiles: profiles,
		},
	})
	if err != nil {
		zapLog.Fatal("failed to create shift-assignment handler", zap.Error(err))
	}
	workers = append(workers, shiftHandler)

	bankingHandler, err := bankingupdate.NewHandler(bankingupdate.HandlerOptions{
		AppConfig: cfg,
		Camunda:   camundaClient,
		Logger:    log,
		Dependencies: bankingupdate.ServiceDependencies{
			Email:    mailer,
			SMS:      smsClient,
			Logs:     logs,
			Profiles: profiles,
		},
	})
	if err != nil {
		zapLog.Fatal("failed to create banking-update handler", zap.Error(err))
	}
	workers = append(workers, bankingHandler)

	registered := 0
	for _, w := range workers {
		if err := w.Register(); err != nil {
			zapLog.Fatal("worker registration failed",
				zap.String("taskType", w.GetTaskType()),
				zap.Error(err),
			)
		}
		if w.IsEnabled() {
			registered++
		}
	}
	zapLog.Info("Notification workers registered",
		zap.Int("registered", registered),
		zap.Int("configured", len(workers)),
	)

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
