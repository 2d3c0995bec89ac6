package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/chandu88611/tradeRepliction/internal/api"
	"github.com/chandu88611/tradeRepliction/internal/bus"
	"github.com/chandu88611/tradeRepliction/internal/config"
	"github.com/chandu88611/tradeRepliction/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	kb := bus.NewKafkaBus(cfg.KafkaBrokers, logger)
	defer kb.Close()

	r := router.New(kb, cfg.Brokers, logger)

	// the gateway must not accept orders it cannot fan out
	ensureCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := r.EnsureStreams(ensureCtx); err != nil {
		cancel()
		logger.Fatal("bus", zap.Error(err))
	}
	cancel()

	s := api.NewServer(r, logger, cfg.CORSOrigin)

	server := &http.Server{Addr: ":" + cfg.Port, Handler: s.R}
	go func() {
		logger.Info("gateway listening", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = server.Shutdown(ctxShut)
	logger.Info("shutdown complete")
}
