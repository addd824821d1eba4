package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"raidstats/internal/api"
	"raidstats/internal/auth"
	"raidstats/internal/config"
	"raidstats/internal/db"
	"raidstats/internal/guild"
	"raidstats/internal/logging"
	"raidstats/internal/metrics"
	"raidstats/internal/processor"
	queue "raidstats/internal/queue"
	"raidstats/internal/stats"
	"raidstats/internal/wcl"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("config load failed: %v", err)
		os.Exit(1)
	}
	logging.SetLevel(cfg.LogLevel)

	catalog, err := guild.Load(cfg.GuildConfig)
	if err != nil {
		logger.Errorf("guild config load failed: %v", err)
		os.Exit(1)
	}

	if cfg.DBURL != "" {
		catalog, err = loadAliases(ctx, cfg.DBURL, catalog)
		if err != nil {
			logger.Errorf("alias load failed: %v", err)
			os.Exit(1)
		}
	}
	aliases := catalog.Aliases()
	logger.Infof("guild %d loaded with %d alias groups (%d aliases)", catalog.GuildID(), len(aliases), aliases.Len())

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Errorf("invalid redis url: %v", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	recorder := metrics.NewPrometheus(prometheus.DefaultRegisterer)

	tokens := auth.NewCache(
		auth.NewRedisStore(redisClient),
		auth.NewClientCredentials(cfg.WCLClientID, cfg.WCLClientSecret, cfg.WCLTokenURL),
	)
	fetcher := wcl.New(wcl.Config{
		Endpoint:  cfg.WCLAPIURL,
		GuildID:   catalog.GuildID(),
		TagID:     catalog.TagID(),
		RateLimit: cfg.WCLRateLimit,
		Timeout:   cfg.WCLTimeout,
		OnPage:    recorder.PageFetched,
	}, tokens)

	svc := stats.NewService(fetcher, catalog, recorder, cfg.FoldMortalityAliases)
	q := queue.NewRedisQueue(redisClient)
	proc := processor.NewStatsProcessor(ctx, svc, catalog, q)
	app := api.NewApp(api.NewStatsHandler(svc, catalog), prometheus.DefaultGatherer)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("http listening on %s", cfg.HTTPAddr)
		return app.Listen(cfg.HTTPAddr)
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	g.Go(func() error {
		var err error
		// Use concurrent processing if worker count > 1
		if cfg.WorkerCount > 1 {
			logger.Infof("starting concurrent consumption with %d workers", cfg.WorkerCount)
			err = q.ConsumeConcurrent(gctx, cfg.RedisQueue, cfg.WorkerCount, cfg.JobBufferSize, proc.Handle)
		} else {
			logger.Infof("starting single-threaded consumption")
			err = q.Consume(gctx, cfg.RedisQueue, proc.Handle)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Errorf("worker stopped: %v", err)
		os.Exit(1)
	}
	logger.Infof("worker stopped")
}

// loadAliases replaces the catalog's aliases with the ones stored in Postgres.
func loadAliases(ctx context.Context, url string, catalog *guild.Catalog) (*guild.Catalog, error) {
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	aliases, err := db.NewAliasReader(pool).GetAliases(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.WithAliases(aliases)
}
