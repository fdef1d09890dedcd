package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/undantag/internal/app"
	"github.com/shrimpsizemoose/undantag/internal/ctl"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to init service: %v", err)
	}

	openTokens := func() (ctl.Tokens, error) {
		client, err := app.NewRedisClient(service.Config.Auth.RedisURL)
		if err != nil {
			return nil, err
		}
		return app.NewTokenManager(client, service.Config.Auth.TokenKeyTemplate), nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = ctl.New(service, openTokens, os.Stdout).Run(ctx, flag.Args())
	stop()
	if closeErr := service.Close(); closeErr != nil {
		logger.Error.Printf("Failed to close service: %v", closeErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "exceptionctl: %v\n", err)
		os.Exit(1)
	}
}
