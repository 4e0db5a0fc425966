package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/transfermarkt-tools/tm-client/internal/config"
	"github.com/transfermarkt-tools/tm-client/pkg/client"
	"github.com/transfermarkt-tools/tm-client/pkg/logging"
	"github.com/transfermarkt-tools/tm-client/pkg/players"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: os.Stderr,
	})

	clientCfg := client.DefaultConfig()
	clientCfg.Timeout = cfg.Request.Timeout
	clientCfg.RateLimit = cfg.Request.RateLimit
	clientCfg.MaxRetries = cfg.Request.MaxRetries

	tmClient, err := client.New(clientCfg)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	srv := newServer(cfg, players.NewService(tmClient))

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.Server.Port).
			Dur("request_timeout", cfg.Request.Timeout).
			Dur("rate_limit", cfg.Request.RateLimit).
			Int("max_retries", cfg.Request.MaxRetries).
			Msg("Starting proxy server")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown failed")
	}
}
