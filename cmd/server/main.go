package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/undantag/internal/app"
	"github.com/shrimpsizemoose/undantag/internal/handlers"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	mux := http.NewServeMux()
	handlers.NewExceptionHandler(service).Routes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:    service.Config.Server.Port,
		Handler: handlers.RequestID(mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info.Printf("Starting undantag server on %s", service.Config.Server.Port)
		logger.Debug.Printf("Auth enabled: %v", service.Auth.Enabled())
		logger.Debug.Println("Requiring headers:")
		for _, h := range service.Config.API.RequiredHeaders {
			logger.Debug.Printf("  %s: %s", h.Name, h.Value)
		}
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Fatalf("Undantag server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info.Println("Shutting down undantag server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), service.Config.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error.Printf("Graceful shutdown failed: %v", err)
	}
}
