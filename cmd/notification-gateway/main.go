package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/config"
	"food-delivery-system/internal/connections/rabbitmq"
	"food-delivery-system/internal/httpx"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/metrics"
	"food-delivery-system/internal/microservices/gateway"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yml", "path to YAML config")
	flag.Parse()

	lg := logger.New("notification-gateway")

	cfg, err := config.Load(cfgPath, 3002)
	if err != nil {
		lg.Error("config_load_failed", err, nil)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rmq := rabbitmq.New(rabbitmq.Config{
		URL:         cfg.Rabbit.URL,
		RetryDelay:  cfg.Rabbit.RetryDelay(),
		MaxAttempts: cfg.Rabbit.MaxAttempts,
	}, lg)
	go func() {
		if err := rmq.Run(ctx); err != nil {
			lg.Error("broker_supervisor_exited", err, nil)
		}
	}()

	hub := gateway.NewHub(lg)
	go hub.Run(ctx)

	consumer := gateway.NewConsumer(rmq, hub, lg)
	go func() {
		if err := consumer.Run(ctx); err != nil {
			lg.Error("consumer_exited", err, nil)
		}
	}()

	ws := gateway.NewServer(hub, authx.NewVerifier(cfg.Auth.Secret), lg)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", ws.HandleWS)
	mux.HandleFunc("GET /health", ws.Health)
	mux.Handle("/metrics", metrics.Handler())

	srv := httpx.New(cfg.HTTPPort, mux)
	lg.Info("service_started", map[string]any{"port": cfg.HTTPPort})
	if err := srv.Run(ctx); err != nil {
		lg.Error("server_failed", err, nil)
		os.Exit(1)
	}
	lg.Info("service_stopped", nil)
}
