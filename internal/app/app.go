package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nsqio/go-nsq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mlsight/features/ingest"
	"mlsight/features/listing"
	"mlsight/features/stats"
	"mlsight/internal/adapter/pgvector"
	"mlsight/internal/config"
	"mlsight/internal/docai"
	"mlsight/internal/media"
	"mlsight/internal/middleware"
	"mlsight/internal/worker"
)

// channel is the shared NSQ channel name: every instance joins the same
// channel so messages are load-balanced, not broadcast.
const channel = "workers"

type App struct {
	Handler http.Handler

	FileConsumer   *worker.FileConsumer
	PageConsumer   *worker.PageConsumer
	ResultConsumer *worker.ResultConsumer

	cfg       *config.Config
	consumers []*nsq.Consumer
}

func New(cfg *config.Config, db *sql.DB, taskPub worker.TaskPublisher, embedder worker.Embedder) (*App, error) {
	docaiTimeout := time.Duration(cfg.DocAITimeoutSecs) * time.Second
	resultDelay := time.Duration(cfg.ResultDelaySecs) * time.Second

	extractor := docai.NewClient(cfg.DocAIURL, cfg.DocAIKey, cfg.DocAISchemaName, cfg.DocAISchemaVersion, docaiTimeout)
	fetcher := media.NewFetcher(time.Duration(cfg.DownloadTimeoutSecs)*time.Second, cfg.PDFRenderDPI)
	store := pgvector.NewStore(db)
	persister := worker.NewPersister(embedder, store)

	var resolver worker.ResultResolver
	switch cfg.ResolverStrategy {
	case config.StrategyFanout:
		resolver = worker.NewPollingResolver(
			extractor,
			time.Duration(cfg.FanoutIntervalSecs)*time.Second,
			time.Duration(cfg.FanoutMaxElapsedMin)*time.Minute,
			cfg.FanoutConcurrency,
		)
	default:
		resolver = worker.NewPollOnceResolver(extractor)
	}

	fileConsumer := worker.NewFileConsumer(fetcher, taskPub, docaiTimeout)
	pageConsumer := worker.NewPageConsumer(extractor, taskPub, resultDelay, docaiTimeout)
	resultConsumer := worker.NewResultConsumer(resolver, persister, taskPub, resultDelay, cfg.MaxPollAttempts)

	// Feature: Listing search
	listingRepo := listing.NewPostgresRepo(db)
	listingService := listing.NewService(listingRepo, embedder)
	listingHandler := listing.NewHandler(listingService)

	// Feature: Intake & Stats
	ingestHandler := ingest.NewHandler(taskPub)
	statsHandler := stats.NewHandler(listingRepo)

	mux := http.NewServeMux()
	mux.Handle("POST /files", middleware.CorrelationID(http.HandlerFunc(ingestHandler.Create)))
	mux.Handle("GET /listings", middleware.CorrelationID(http.HandlerFunc(listingHandler.List)))
	mux.Handle("GET /listings/search", middleware.CorrelationID(http.HandlerFunc(listingHandler.Search)))
	mux.Handle("POST /listings/search/semantic", middleware.CorrelationID(http.HandlerFunc(listingHandler.SemanticSearch)))
	mux.Handle("GET /listings/{id}", middleware.CorrelationID(http.HandlerFunc(listingHandler.Get)))
	mux.Handle("GET /stats", middleware.CorrelationID(http.HandlerFunc(statsHandler.GetStats)))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return &App{
		Handler:        mux,
		FileConsumer:   fileConsumer,
		PageConsumer:   pageConsumer,
		ResultConsumer: resultConsumer,
		cfg:            cfg,
	}, nil
}

// StartConsumers connects each pipeline stage to its topic. The result stage
// gets a wider handler pool under the fanout strategy, where each handler
// blocks while polling.
func (a *App) StartConsumers() error {
	resultConcurrency := a.cfg.WorkerConcurrency
	resultTimeout := time.Duration(0) // go-nsq default
	if a.cfg.ResolverStrategy == config.StrategyFanout {
		resultConcurrency = a.cfg.FanoutConcurrency
		resultTimeout = time.Duration(a.cfg.FanoutMaxElapsedMin+5) * time.Minute
	}

	stages := []struct {
		topic       string
		handler     nsq.Handler
		concurrency int
		msgTimeout  time.Duration
	}{
		{config.TopicFile, a.FileConsumer, a.cfg.WorkerConcurrency, 0},
		{config.TopicPage, a.PageConsumer, a.cfg.WorkerConcurrency, 0},
		{config.TopicResult, a.ResultConsumer, resultConcurrency, resultTimeout},
	}

	for _, stage := range stages {
		nsqCfg := nsq.NewConfig()
		nsqCfg.MaxInFlight = stage.concurrency
		if stage.msgTimeout > 0 {
			nsqCfg.MsgTimeout = stage.msgTimeout
		}

		consumer, err := nsq.NewConsumer(stage.topic, channel, nsqCfg)
		if err != nil {
			return fmt.Errorf("failed to create consumer for %s: %w", stage.topic, err)
		}
		consumer.AddConcurrentHandlers(stage.handler, stage.concurrency)

		if err := consumer.ConnectToNSQLookupd(a.cfg.NSQLookupd); err != nil {
			return fmt.Errorf("failed to connect consumer for %s: %w", stage.topic, err)
		}
		slog.Info("consumer connected", "topic", stage.topic, "concurrency", stage.concurrency)
		a.consumers = append(a.consumers, consumer)
	}
	return nil
}

// StopConsumers drains in-flight messages and disconnects.
func (a *App) StopConsumers() {
	for _, c := range a.consumers {
		c.Stop()
	}
	for _, c := range a.consumers {
		<-c.StopChan
	}
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.ServerPort),
		Handler: a.Handler,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.cfg.ServerPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
