package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/craftmarket/salesagg/internal/admin"
	"github.com/craftmarket/salesagg/internal/aggregation"
	v1 "github.com/craftmarket/salesagg/internal/api/v1"
	"github.com/craftmarket/salesagg/internal/cache"
	coreagg "github.com/craftmarket/salesagg/internal/core/aggregation"
	corecfg "github.com/craftmarket/salesagg/internal/core/config"
	"github.com/craftmarket/salesagg/internal/core/storage"
	"github.com/craftmarket/salesagg/internal/core/storage/memory"
	"github.com/craftmarket/salesagg/internal/core/storage/mongostore"
	"github.com/craftmarket/salesagg/internal/core/storage/postgres"
	"github.com/craftmarket/salesagg/internal/feed"
	"github.com/craftmarket/salesagg/internal/ingestion"
	"github.com/craftmarket/salesagg/internal/migrations"
	"github.com/craftmarket/salesagg/internal/projection"
	"github.com/craftmarket/salesagg/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "salesagg.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Initialize Logger
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(os.Stdout, cfg.Logging))
	slog.Info("Loaded config",
		"database", cfg.Database.Type,
		"aggregate_store", cfg.Database.EffectiveAggregateStore(),
		"cache", cfg.Cache.Enabled,
		"feed", cfg.Feed.Enabled,
	)

	if err := run(cfg); err != nil {
		slog.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(cfg *corecfg.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, reg)

	// 2. Initialize Storage
	stores, err := openStores(ctx, cfg.Database, srv)
	if err != nil {
		return err
	}
	defer stores.close()

	// 3. Initialize Cache (Redis, optional)
	var aggCache cache.AggregateCache = cache.Noop{}
	if cfg.Cache.Enabled {
		redisCache := cache.NewRedis(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTLDuration())
		defer redisCache.Close()
		srv.AddHealthCheck("redis", redisCache)
		aggCache = redisCache
	}

	// 4. Initialize Aggregation Engine
	channels := coreagg.DefaultChannelCatalog()
	if path := cfg.Aggregation.ChannelAliasesFile; path != "" {
		if channels, err = coreagg.LoadChannelCatalog(path); err != nil {
			return fmt.Errorf("load channel aliases: %w", err)
		}
		slog.Info("Loaded channel aliases", "path", path, "aliases", channels.Aliases())
	}
	loc, err := cfg.Aggregation.Location()
	if err != nil {
		return err
	}

	engine, err := aggregation.NewEngine(aggregation.Deps{
		Source:     stores.events,
		Store:      stores.aggregates,
		Cache:      aggCache,
		Channels:   channels,
		Location:   loc,
		Registerer: reg,
	}, cfg.Aggregation.Options(), cfg.Aggregation.Runtime())
	if err != nil {
		return err
	}
	scheduler := aggregation.NewScheduler(engine, cfg.Aggregation.SweepInterval())

	slog.Info("Aggregation engine initialized",
		"update_interval", cfg.Aggregation.UpdateInterval,
		"batch_size", cfg.Aggregation.BatchSize,
		"worker_count", cfg.Aggregation.WorkerCount,
		"max_pending", cfg.Aggregation.MaxPending,
		"time_zone", loc.String(),
	)

	// 5. Initialize HTTP services
	limiter := ingestion.NewSellerLimiter(cfg.Server.SellerRateLimit, cfg.Server.SellerRateBurst)
	ingestion.NewService(stores.events, engine, limiter, cfg.Server.MaxBodySizeMB).RegisterRoutes(srv.Engine)
	projection.NewService(stores.aggregates, aggCache, engine).RegisterRoutes(srv.Engine)
	admin.NewService(engine).RegisterRoutes(srv.Engine)

	// 6. Initialize Kafka feed (optional)
	var consumer *feed.Consumer
	if cfg.Feed.Enabled {
		codec, err := feed.NewCodec(cfg.Feed.Codec)
		if err != nil {
			return err
		}
		reader := feed.NewReader(feed.Config{
			Brokers:  cfg.Feed.BrokerList(),
			Topic:    cfg.Feed.Topic,
			GroupID:  cfg.Feed.GroupID,
			MinBytes: cfg.Feed.MinBytes,
			MaxBytes: cfg.Feed.MaxBytes,
		})
		accept := func(ctx context.Context, evt *v1.SalesEvent) error {
			return ingestion.Accept(ctx, stores.events, engine, evt)
		}
		consumer = feed.NewConsumer(reader, codec, accept, cfg.Feed.RetryDelayDuration(), reg)
		slog.Info("Kafka feed initialized", "topic", cfg.Feed.Topic, "group_id", cfg.Feed.GroupID, "codec", codec.Name())
	}

	// 7. Start Services
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case <-quit:
			slog.Info("Signal received, shutting down...")
			cancel()
		case <-ctx.Done():
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return scheduler.Start(gctx)
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Run(gctx)
		})
	}
	// HTTP server blocks until ctx is cancelled.
	g.Go(func() error {
		return srv.Run(gctx)
	})
	return g.Wait()
}

// storeSet holds the opened backends and how to release them.
type storeSet struct {
	events     storage.EventStore
	aggregates storage.AggregateStore
	closers    []func()
}

func (s *storeSet) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStores(ctx context.Context, cfg corecfg.DatabaseConfig, srv *server.Server) (*storeSet, error) {
	set := &storeSet{}
	aggStore := cfg.EffectiveAggregateStore()

	var db *sql.DB
	if cfg.Type == "postgres" || aggStore == "postgres" {
		var err error
		if db, err = postgres.Open(cfg.DSN, cfg.MaxOpenConns, cfg.MaxIdleConns); err != nil {
			return nil, err
		}
		if err := migrations.RunMigrations(db, cfg.AutoMigrate); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	switch cfg.Type {
	case "postgres":
		adapter, err := postgres.NewAdapter(db, cfg.PageSize)
		if err != nil {
			return nil, err
		}
		set.closers = append(set.closers, func() { adapter.Close() })
		srv.AddHealthCheck("postgres", adapter)
		set.events = adapter
	default:
		slog.Warn("Using in-memory event store; events are lost on restart")
		set.events = memory.NewEventStore()
		if db != nil {
			set.closers = append(set.closers, func() { db.Close() })
		}
	}

	switch aggStore {
	case "postgres":
		set.aggregates = postgres.NewAggregateAdapter(db)
	case "mongo":
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			set.close()
			return nil, err
		}
		set.closers = append(set.closers, func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("[Mongo] Disconnect failed", "error", err)
			}
		})
		store := mongostore.NewAggregateStore(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err := store.EnsureIndexes(ctx); err != nil {
			set.close()
			return nil, err
		}
		srv.AddHealthCheck("mongo", pingFunc(func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		}))
		set.aggregates = store
	default:
		set.aggregates = memory.NewAggregateStore()
	}
	return set, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newLogger(w io.Writer, cfg corecfg.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
