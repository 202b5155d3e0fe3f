// cmd/agenda-orchestrator/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adb1146/itc-conference-app-sub002/internal/agenda"
	"github.com/adb1146/itc-conference-app-sub002/internal/api"
	"github.com/adb1146/itc-conference-app-sub002/internal/catalog"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/aws"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/config"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/database"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/logger"
	"github.com/adb1146/itc-conference-app-sub002/internal/common/observability"
	"github.com/adb1146/itc-conference-app-sub002/internal/notify"
	"github.com/adb1146/itc-conference-app-sub002/internal/orchestrator"
	"github.com/adb1146/itc-conference-app-sub002/internal/profile/extractor"
	"github.com/adb1146/itc-conference-app-sub002/internal/research"
	"github.com/adb1146/itc-conference-app-sub002/internal/research/websearch"
	"github.com/adb1146/itc-conference-app-sub002/internal/schedule/conflicts"
	"github.com/adb1146/itc-conference-app-sub002/internal/session"
	"github.com/adb1146/itc-conference-app-sub002/internal/storage"
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
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting agenda orchestrator...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("agenda-orchestrator")
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
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		redis = database.NewRedis(cfg.Database.Redis)
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Assemble components ---
	sessions := session.NewStore(redis.Client,
		time.Duration(cfg.Orchestrator.SessionTTLMinutes)*time.Minute, log)

	ext := extractor.New(&extractor.Config{
		GenAIBaseURL: cfg.APIs.GenAI.BaseURL,
		APIKey:       cfg.APIs.GenAI.APIKey,
		Timeout:      time.Duration(cfg.APIs.GenAI.TimeoutMS) * time.Millisecond,
		MaxRetries:   cfg.APIs.GenAI.MaxRetries,
	}, log)

	searchClient := websearch.New(&websearch.Config{
		BaseURL:        cfg.APIs.WebSearch.BaseURL,
		APIKey:         cfg.APIs.WebSearch.APIKey,
		SearchEngineID: cfg.APIs.WebSearch.SearchEngineID,
		Timeout:        time.Duration(cfg.APIs.WebSearch.TimeoutMS) * time.Millisecond,
		MaxResults:     cfg.APIs.WebSearch.MaxResults,
		MinRelevance:   cfg.APIs.WebSearch.MinRelevance,
	}, log)
	researcher := research.New(research.DefaultConfig(), searchClient, log)

	sessionCatalog := catalog.New(esClient.Client, cfg.Database.Elasticsearch.SessionIndex, log)
	detector := conflicts.NewDetector(log)
	store := storage.NewAgendaStore(pg.DB, log)

	builder := agenda.NewSmartBuilder(&agenda.Config{
		ConferenceDays:    cfg.Agenda.ConferenceDays,
		ConferenceStart:   cfg.Agenda.ConferenceStart,
		MaxSessionsPerDay: cfg.Agenda.MaxSessionsPerDay,
	}, store, sessionCatalog, detector, log)

	var notifier orchestrator.Notifier
	if cfg.Notifications.Enabled {
		sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWSRegion)
		if err != nil {
			zapLog.Warn("SES client init failed, notifications disabled", zap.Error(err))
		} else {
			notifier = notify.NewNotifier(sesClient, cfg.Notifications.FromEmail, true, log)
		}
	}

	orch := orchestrator.New(&orchestrator.Config{
		MaxBuildAttempts:  cfg.Orchestrator.MaxBuildAttempts,
		IncludeMeals:      cfg.Agenda.IncludeMeals,
		MaxSessionsPerDay: cfg.Agenda.MaxSessionsPerDay,
	}, sessions, ext, researcher, builder, store, notifier, log)

	// --- Serve metrics + pprof ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Metrics server starting", zap.String("address", cfg.Server.MetricsAddress))
		if err := http.ListenAndServe(cfg.Server.MetricsAddress, nil); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Serve API ---
	server := api.NewServer(orch, detector, store, log)
	httpSrv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      server.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	go func() {
		zapLog.Info("API server starting", zap.String("address", cfg.Server.Address))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("api server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("api server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Shutdown complete")
}
