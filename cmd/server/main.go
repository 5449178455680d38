package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/web3-frozen/chain-watchdog/internal/config"
	"github.com/web3-frozen/chain-watchdog/internal/handler"
	"github.com/web3-frozen/chain-watchdog/internal/middleware"
	"github.com/web3-frozen/chain-watchdog/internal/notify"
	"github.com/web3-frozen/chain-watchdog/internal/push"
	"github.com/web3-frozen/chain-watchdog/internal/rpc"
	"github.com/web3-frozen/chain-watchdog/internal/watchdog"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.LogLevel)}))

	if cfg.NodeRPCURL == "" {
		logger.Error("NODE_RPC_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	node := rpc.NewClient(cfg.NodeRPCURL, cfg.NodeRPCUser, cfg.NodeRPCPassword, cfg.RPCTimeout, logger)

	hub := push.NewHub(logger)
	pubs := []watchdog.Publisher{hub}
	if cfg.AlertWebhookURL != "" {
		pubs = append(pubs, notify.NewWebhookNotifier(cfg.AlertWebhookURL, 10*time.Second, logger))
		logger.Info("alert webhook enabled")
	}

	wd := watchdog.New(node, watchdog.Options{
		Interval:            cfg.MonitoringInterval,
		TargetBlockInterval: cfg.TargetBlockInterval,
		Thresholds:          config.LoadThresholds(),
	}, logger, pubs...)

	if err := wd.Start(ctx); err != nil {
		logger.Error("failed to start watchdog", "error", err)
		os.Exit(1)
	}

	// HTTP routes
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.FrontendOrigin))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handler.Health())
	r.Get("/readyz", handler.Ready(node))

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", handler.Status(wd))
		r.Get("/alerts", handler.ListAlerts(wd))
		r.Post("/alerts/{id}/ack", handler.AcknowledgeAlert(wd))
		r.Post("/watchdog/start", handler.StartWatchdog(ctx, wd))
		r.Post("/watchdog/stop", handler.StopWatchdog(wd))
		r.Get("/ws", handler.Subscribe(hub))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "node", cfg.NodeRPCURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down gracefully")
	if err := wd.Stop(); err != nil {
		logger.Warn("watchdog stop", "error", err)
	}
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func logLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
