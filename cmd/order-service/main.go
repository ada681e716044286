package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"food-delivery-system/internal/authx"
	"food-delivery-system/internal/config"
	"food-delivery-system/internal/connections/database"
	"food-delivery-system/internal/connections/rabbitmq"
	"food-delivery-system/internal/etaclient"
	"food-delivery-system/internal/httpx"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/microservices/order/handlers"
	"food-delivery-system/internal/microservices/order/repository"
	"food-delivery-system/internal/microservices/order/service"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yml", "path to YAML config")
	flag.Parse()

	lg := logger.New("order-service")

	cfg, err := config.Load(cfgPath, 3001)
	if err != nil {
		lg.Error("config_load_failed", err, nil)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		lg.Error("db_connect_failed", err, nil)
		os.Exit(1)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		lg.Error("db_migrate_failed", err, nil)
		os.Exit(1)
	}
	lg.Info("db_connected", nil)

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

	repo := repository.New(pool)
	eta := etaclient.New(cfg.Estimator.URL)
	svc := service.New(repo, rmq, eta, lg)
	h := handlers.New(svc, cfg.Auth, lg)
	verifier := authx.NewVerifier(cfg.Auth.Secret)

	srv := httpx.New(cfg.HTTPPort, h.Router(verifier, lg))
	lg.Info("service_started", map[string]any{"port": cfg.HTTPPort})
	if err := srv.Run(ctx); err != nil {
		lg.Error("server_failed", err, nil)
		os.Exit(1)
	}

	// Let in-flight ETA enrichment finish before exiting.
	svc.OrderService.Wait()
	lg.Info("service_stopped", nil)
}
