package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/dictionary"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/anagram/search"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/analytics/aggregator"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/analytics/collector"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/server/cache"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/internal/server/handler"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/sentence-anagrams/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("anagram service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("anagram service stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	slog.Info("starting anagram service",
		"port", cfg.Server.Port,
		"dictionary_source", cfg.Dictionary.Source,
		"max_depth", cfg.Search.MaxDepth,
		"memoize", cfg.Search.Memoize,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	checker := health.NewChecker()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	// background work that must finish before the clients it uses close
	var bg sync.WaitGroup

	var pg *postgres.Client
	if cfg.Postgres.Enabled {
		var err error
		pg, err = postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
		checker.Register("postgres", health.PingCheck(pg.Ping))
		slog.Info("postgres connected", "host", cfg.Postgres.Host, "database", cfg.Postgres.Database)
	}

	src, err := dictionary.SourceFor(cfg.Dictionary, pg)
	if err != nil {
		return err
	}
	idx, err := dictionary.Load(ctx, src)
	if err != nil {
		return err
	}
	stats := idx.Stats()
	m.DictionaryWords.Set(float64(stats.Words))
	m.DictionarySignatures.Set(float64(stats.Signatures))
	checker.Register("dictionary", func(context.Context) health.ComponentHealth {
		if idx.Stats().Words == 0 {
			return health.ComponentHealth{Status: health.StatusDown, Message: "dictionary is empty"}
		}
		return health.ComponentHealth{Status: health.StatusUp, Message: fmt.Sprintf("%d words", stats.Words)}
	})

	engine := search.New(idx, search.Options{MaxDepth: cfg.Search.MaxDepth, Memoize: cfg.Search.Memoize})

	var resultCache *cache.ResultCache
	if cfg.Redis.Enabled {
		rdb, err := pkgredis.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer rdb.Close()
			resultCache = cache.New(rdb, cfg.Redis.CacheTTL, m)
			checker.RegisterOptional("redis", health.PingCheck(rdb.Ping))
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	agg := analytics.NewAggregator()
	var tracker analytics.Tracker = agg
	if cfg.Kafka.Enabled {
		topic := cfg.Kafka.Topics.AnalyticsEvents
		producer := kafka.NewProducer(cfg.Kafka, topic)
		defer producer.Close()
		batch := collector.NewBatchCollector(producer, cfg.Kafka.BatchSize, cfg.Kafka.FlushInterval)
		batch.Start(ctx)
		defer batch.Close()
		tracker = batch

		consumer := kafka.NewConsumer(cfg.Kafka, topic, agg.HandleMessage)
		bg.Go(func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("analytics consumer stopped", "error", err)
			}
		})
		checker.RegisterOptional("kafka", health.PingCheck(func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.Kafka.Brokers)
		}))
		slog.Info("analytics streaming through kafka", "topic", topic, "brokers", cfg.Kafka.Brokers)
	}

	var snapshots analytics.SnapshotLister
	if pg != nil {
		store := aggregator.NewStore(pg)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		bg.Go(func() { store.Run(ctx, agg, cfg.Analytics.SnapshotInterval) })
		snapshots = store
	}

	h := handler.New(engine, resultCache, tracker, m, cfg.Search)
	analyticsHandler := analytics.NewHandler(agg, snapshots)

	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RateLimit(middleware.NewClientLimiter(cfg.RateLimit))(chain)
	chain = middleware.CORS(cfg.Server.CORSOrigins)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, reg)
		metricsServer.Start()
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	bg.Go(func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	})

	slog.Info("anagram service listening", "addr", server.Addr)
	err = server.ListenAndServe()
	cancel()
	bg.Wait()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
