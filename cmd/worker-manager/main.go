// cmd/worker-manager/main.go
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

	"rfp-proposal-engine/internal/catalog"
	"rfp-proposal-engine/internal/common/aws"
	"rfp-proposal-engine/internal/common/camunda"
	"rfp-proposal-engine/internal/common/config"
	"rfp-proposal-engine/internal/common/database"
	"rfp-proposal-engine/internal/common/llm"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/common/observability"
	"rfp-proposal-engine/internal/matching"
	"rfp-proposal-engine/internal/narrative"
	"rfp-proposal-engine/internal/pipeline"
	"rfp-proposal-engine/internal/pricing"
	"rfp-proposal-engine/internal/store"

	npr "rfp-proposal-engine/internal/workers/proposal/notify-proposal-ready"
	pr "rfp-proposal-engine/internal/workers/proposal/process-rfp"
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
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	tracing, err := observability.NewTracing("rfp-proposal-engine", os.Getenv("JAEGER_ENDPOINT"))
	if err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
		tracing = nil
	} else {
		defer tracing.Shutdown()
	}

	ctx := context.Background()

	// --- Init Zeebe client with retry ---
	var zeebeClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebeClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         time.Duration(cfg.Camunda.RequestTimeout) * time.Millisecond,
		})
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
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Assemble the proposal pipeline ---
	openaiClient := llm.NewOpenAIClient(cfg.OpenAI)
	persistence := store.New(pg.DB, log)
	embeddingCache := catalog.NewEmbeddingCache(redis.Client, log)
	searcher := catalog.NewESStore(esClient.Client, cfg.Database.Elasticsearch.CatalogIndex, log)

	var reranker *matching.Reranker
	if cfg.Pipeline.RerankEnabled {
		reranker = matching.NewReranker(openaiClient, log)
	}

	engine := matching.NewEngine(
		openaiClient,
		searcher,
		embeddingCache,
		reranker,
		matching.Options{
			TopK:                cfg.Pipeline.TopK,
			AcceptanceThreshold: cfg.Pipeline.AcceptanceThreshold,
			NumericTolerance:    cfg.Pipeline.NumericTolerance,
			RerankEnabled:       cfg.Pipeline.RerankEnabled,
			RerankTopN:          cfg.Pipeline.RerankTopN,
		},
		log,
	)

	orchestrator := pipeline.NewOrchestrator(
		persistence,
		engine,
		pricing.NewEngine(log),
		narrative.NewSynthesizer(openaiClient, log),
		obs,
		tracing,
		pipeline.Options{
			MatchConcurrency: cfg.Pipeline.MatchConcurrency,
			StageTimeout:     time.Duration(cfg.Pipeline.StageTimeout) * time.Millisecond,
		},
		log,
	)

	zapLog.Info("Pipeline assembled")

	// --- Register workers ---
	var workers []*camunda.Worker

	if cfg.Workers[pr.TaskType].Enabled {
		handler := pr.NewHandler(
			&pr.Config{
				Timeout:       time.Duration(cfg.Workers[pr.TaskType].Timeout) * time.Millisecond,
				MaxJobsActive: cfg.Workers[pr.TaskType].MaxJobsActive,
			},
			orchestrator, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient.GetClient(),
			pr.TaskType,
			cfg.Workers[pr.TaskType].MaxJobsActive,
			time.Duration(cfg.Workers[pr.TaskType].Timeout)*time.Millisecond,
			handler, log,
		))
	}

	if cfg.Workers[npr.TaskType].Enabled {
		var emailSender npr.EmailSender
		var smsSender npr.SMSSender
		if cfg.Notifications.Email.Enabled {
			sesClient, err := aws.NewSESClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("failed to create SES client", zap.Error(err))
			}
			emailSender = sesClient
		}
		if cfg.Notifications.SMS.Enabled {
			snsClient, err := aws.NewSNSClient(ctx, cfg.Notifications.AWS.Region)
			if err != nil {
				zapLog.Fatal("failed to create SNS client", zap.Error(err))
			}
			smsSender = snsClient
		}

		handler := npr.NewHandler(
			&npr.Config{
				Timeout:      time.Duration(cfg.Workers[npr.TaskType].Timeout) * time.Millisecond,
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
			},
			emailSender, smsSender, log,
		)
		workers = append(workers, camunda.NewWorker(
			zeebeClient.GetClient(),
			npr.TaskType,
			cfg.Workers[npr.TaskType].MaxJobsActive,
			time.Duration(cfg.Workers[npr.TaskType].Timeout)*time.Millisecond,
			handler, log,
		))
	}

	// --- Metrics endpoint ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("metrics endpoint listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("metrics server failed", zap.Error(err))
		}
	}()

	// --- Wait for shutdown signal ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutting down worker manager...")
	for _, w := range workers {
		w.Stop()
	}
	zeebeClient.Close()
}
