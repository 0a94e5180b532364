// cmd/match-engine/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"trm-match-engine/internal/common/aws"
	"trm-match-engine/internal/common/config"
	"trm-match-engine/internal/common/database"
	"trm-match-engine/internal/common/logger"
	"trm-match-engine/internal/common/observability"
	"trm-match-engine/internal/engine"
	"trm-match-engine/internal/models"
	"trm-match-engine/internal/notify"
	"trm-match-engine/internal/referral"
	"trm-match-engine/internal/store"
	"trm-match-engine/internal/sweeper"
	"trm-match-engine/internal/webhook"
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
		fallback := logger.New("info", "console")
		fallback.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting match engine...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx := context.Background()

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

	// --- Init Redis with retry ---
	var rds *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rds, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rds.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rds.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init AWS Clients ---
	var emailClient notify.EmailSender
	var topicClient notify.Publisher
	if cfg.Notifications.Email.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("ses client init failed", zap.Error(err))
		}
		emailClient = sesClient
	}
	if cfg.Notifications.SMS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client init failed", zap.Error(err))
		}
		topicClient = snsClient
	}

	// --- Wire stores and engine ---
	jobs := store.NewJobs(pg.DB, rds.Client, cfg.Engine.ProfileCacheTTL, log)
	candidates := store.NewCandidates(pg.DB, rds.Client, cfg.Engine.ProfileCacheTTL, log)
	scores := store.NewMatchScores(pg.DB, log)
	network := referral.NewNetwork(pg.DB, log)

	sender := notify.NewSender(emailClient, topicClient, candidates, notify.Config{
		FromEmail: cfg.Notifications.Email.FromEmail,
		TopicARN:  cfg.Notifications.SMS.TopicARN,
	}, log)

	overrides := make(map[models.Factor]float64, len(cfg.Engine.WeightOverrides))
	for name, weight := range cfg.Engine.WeightOverrides {
		overrides[models.Factor(name)] = weight
	}

	eng, err := engine.New(jobs, candidates, scores, sender, network, engine.Options{
		BatchSize:             cfg.Engine.BatchSize,
		PerfectMatchThreshold: cfg.Engine.PerfectMatchThreshold,
		SuggestionMinScore:    cfg.Engine.SuggestionMinScore,
		StaleAfter:            time.Duration(cfg.Engine.StaleAfterDays) * 24 * time.Hour,
		WeightOverrides:       overrides,
	}, log)
	if err != nil {
		zapLog.Fatal("engine init failed", zap.Error(err))
	}
	zapLog.Info("Match engine initialized", zap.String("algorithmVersion", engine.AlgorithmVersion))

	// --- Webhook Server ---
	hook := webhook.NewHandler(cfg.Webhook.Secret, cfg.Webhook.MaxSkew, log)
	if err := webhook.RegisterEngineEvents(hook, eng); err != nil {
		zapLog.Fatal("webhook event registration failed", zap.Error(err))
	}

	webhookMux := http.NewServeMux()
	webhookMux.Handle("/webhooks/trm", hook)
	webhookSrv := &http.Server{
		Addr:         cfg.Webhook.Listen,
		Handler:      webhookMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		zapLog.Info("Webhook server listening", zap.String("addr", cfg.Webhook.Listen))
		if err := webhookSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Webhook server failed", zap.Error(err))
		}
	}()

	// --- Background Sweeps ---
	sweeps, err := sweeper.New(eng, cfg.Sweep, log)
	if err != nil {
		zapLog.Fatal("sweep scheduling failed", zap.Error(err))
	}
	sweeps.Start()

	// --- Health & Metrics Server ---
	go func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		mux.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Metrics.Listen))
		if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sweeps.Stop()
	if err := webhookSrv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down webhook server", zap.Error(err))
	}

	zapLog.Info("Match engine stopped gracefully")
}
