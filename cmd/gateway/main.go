// Package main provides the real-time gateway for the game. It terminates
// authenticated WebSocket connections, publishes player commands to the
// engine over the message bus, and fans engine events back out to clients.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/qedlabs/labyrinth-gateway/internal/bus"
	"github.com/qedlabs/labyrinth-gateway/internal/config"
	"github.com/qedlabs/labyrinth-gateway/internal/gateway"
	"github.com/qedlabs/labyrinth-gateway/internal/gateway/registry"
	"github.com/qedlabs/labyrinth-gateway/internal/observability"
	"github.com/qedlabs/labyrinth-gateway/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting labyrinth gateway",
		zap.String("listen_addr", cfg.Server.Addr()),
		zap.String("redis_addr", cfg.Redis.Addr()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Redis
	redisStart := time.Now()
	client := bus.NewClient(cfg.Redis)
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		logger.Fatal("connecting to redis", zap.Error(err))
	}
	pingCancel()
	logger.Info("redis connected",
		zap.String("addr", cfg.Redis.Addr()),
		zap.Duration("elapsed", time.Since(redisStart)),
	)

	// Build services
	messageBus := bus.NewRedisBus(client, logger)
	connRegistry := registry.NewMemory()
	ingress := gateway.NewIngress(messageBus, logger)
	egress := gateway.NewEgress(connRegistry, logger)
	verifier := gateway.NewTokenVerifier(cfg.Auth.Secret)
	wsHandler := gateway.NewHandler(cfg.Server, verifier, connRegistry, ingress, logger)

	mux := http.NewServeMux()
	mux.Handle("/websocket", wsHandler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: mux,
	}

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	lifecycle.Add("redis", &server.FuncService{
		StartFn: func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(30 * time.Second):
				}
				healthCtx, healthCancel := context.WithTimeout(ctx, 5*time.Second)
				if err := client.Ping(healthCtx).Err(); err != nil {
					logger.Warn("redis health check failed", zap.Error(err))
				}
				healthCancel()
			}
		},
		StopFn: func() {
			_ = client.Close()
		},
	})

	lifecycle.Add("egress", &server.FuncService{
		StartFn: func() error {
			sub, err := egress.Start(ctx, messageBus)
			if err != nil {
				return err
			}
			<-ctx.Done()
			_ = sub.Close()
			return nil
		},
		StopFn: func() {
			cancel()
		},
	})

	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			_ = httpServer.Shutdown(shutdownCtx)
		},
	})

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}
