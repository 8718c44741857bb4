package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eshop-backend/internal/client"
	"eshop-backend/internal/config"
	"eshop-backend/internal/handler"
	"eshop-backend/internal/logger"
	"eshop-backend/internal/repository"
	"eshop-backend/internal/server"
	"eshop-backend/internal/service"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	db, err := client.InitDBClient(&cfg.Database)
	if err != nil {
		log.Error("database init failed", "err", err)
		os.Exit(1)
	}

	paymentClient := client.NewStripeClient(&cfg.Stripe)
	verifier := client.NewWebhookVerifier(cfg.Stripe.WebhookSecret)

	orderRepo := repository.NewOrderRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	checkoutService := service.NewCheckoutService(paymentClient, orderRepo, cfg.Stripe.Currency, log)
	webhookService := service.NewWebhookService(verifier, orderRepo, webhookEventRepo, log)

	checkoutHandler := handler.NewCheckoutHandler(checkoutService, webhookService, log)

	srv := server.NewServer(checkoutHandler, cfg.Auth.JWTSecret)
	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port

	log.Info("starting HTTP server", "addr", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "err", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "err", err)
		os.Exit(1)
	}
}
