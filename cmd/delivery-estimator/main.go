package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"food-delivery-system/internal/config"
	"food-delivery-system/internal/httpx"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/metrics"
	"food-delivery-system/internal/microservices/estimator/handlers"
	"food-delivery-system/internal/microservices/estimator/service"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yml", "path to YAML config")
	flag.Parse()

	lg := logger.New("delivery-estimator")

	cfg, err := config.Load(cfgPath, 8080)
	if err != nil {
		lg.Error("config_load_failed", err, nil)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	h := handlers.NewEstimatorHandler(service.NewEstimatorService(lg), lg)

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Estimate)
	mux.Handle("/metrics", metrics.Handler())

	srv := httpx.New(cfg.HTTPPort, mux)
	lg.Info("service_started", map[string]any{"port": cfg.HTTPPort})
	if err := srv.Run(ctx); err != nil {
		lg.Error("server_failed", err, nil)
		os.Exit(1)
	}
	lg.Info("service_stopped", nil)
}
