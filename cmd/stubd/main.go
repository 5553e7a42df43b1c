// File: cmd/stubd/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipegen-client/internal/config"
	"recipegen-client/internal/infra/logging"
	"recipegen-client/internal/infra/metrics"
	red "recipegen-client/internal/infra/redis"
	"recipegen-client/internal/infra/stub"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	// The stub runs fine without a config file; all knobs have defaults.
	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("config: %v (using defaults)", err)
		}
		cfg = &config.Config{Runtime: config.RuntimeConfig{Dev: *devMode}}
		cfg.ApplyDefaults()
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	metrics.MustRegister()

	// ---- Optional Redis rate limiting ----
	var limiter *red.RateLimiter
	if cfg.Stub.Redis.URL != "" {
		client, err := red.NewClient(ctx, &cfg.Stub.Redis)
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		limiter = red.NewRateLimiter(client)
		logger.Info().Str("redis", cfg.Stub.Redis.URL).Msg("rate limiting enabled")
	} else {
		logger.Warn().Msg("stub.redis.url not set; rate limiting disabled")
	}

	store := stub.NewStore(cfg.Stub.PendingDelay, cfg.Stub.StepDuration)
	srv := stub.NewServer(store, cfg.Stub, limiter, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Stub.Port),
		Handler: srv.Router(),
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("stub backend listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	logger.Info().Msg("shutdown requested")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)
}
