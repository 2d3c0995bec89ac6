package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/broker"
	"github.com/chandu88611/tradeRepliction/internal/bus"
	"github.com/chandu88611/tradeRepliction/internal/config"
	"github.com/chandu88611/tradeRepliction/internal/directory"
	"github.com/chandu88611/tradeRepliction/internal/executor"
	"github.com/chandu88611/tradeRepliction/internal/marketdata"
	"github.com/chandu88611/tradeRepliction/internal/sizing"
	"github.com/chandu88611/tradeRepliction/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	kb := bus.NewKafkaBus(cfg.KafkaBrokers, logger)
	defer kb.Close()

	var dir directory.Directory
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("db", zap.Error(err))
		}
		defer pool.Close()
		dir = directory.NewPostgres(pool)
	} else {
		logger.Warn("DATABASE_URL not set, using mock account directory")
		dir = directory.NewMock([]string{cfg.Broker}, 3)
	}
	dir, err = directory.NewCached(dir, cfg.DirectoryCacheTTL)
	if err != nil {
		logger.Fatal("directory cache", zap.Error(err))
	}

	var market marketdata.Provider
	if cfg.MarketDataFile != "" {
		market, err = marketdata.LoadFile(cfg.MarketDataFile)
		if err != nil {
			logger.Fatal("market data", zap.Error(err))
		}
	} else {
		market = marketdata.NewStatic(nil)
	}

	disp := &worker.Dispatcher{
		Client: broker.NewPaper(cfg.Broker, logger),
		Market: market,
		Slice: sizing.SliceConfig{
			MaxQtyPerSlice:      cfg.MaxQtyPerSlice,
			MinQtyPerSlice:      cfg.MinQtyPerSlice,
			MaxNotionalPerSlice: cfg.MaxNotionalPerSlice,
		},
		Namespace: cfg.IdemNamespace,
		Log:       logger,
	}
	sched := worker.NewScheduler(cfg.Concurrency, disp.Execute, logger)

	exec := executor.New(cfg.Broker, kb, dir, sched,
		cfg.Partitions, cfg.ShardIndex, cfg.ShardCount, logger)
	if err := exec.Start(ctx); err != nil {
		logger.Fatal("executor", zap.Error(err))
	}

	<-ctx.Done()
	logger.Info("shutting down, draining in-flight work")
	exec.Drain()
	logger.Info("shutdown complete")
}
