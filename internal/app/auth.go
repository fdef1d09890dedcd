// internal/app/auth.go
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/shrimpsizemoose/trekker/logger"
)

var ErrInvalidAuthHeader = errors.New("invalid authorization header format")

type Auth struct {
	enabled     bool
	tokens      *TokenManager
	tokenHeader string
}

func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func NewAuth(config *Config) (*Auth, error) {
	if !config.Server.EnableAuth {
		return &Auth{enabled: false, tokenHeader: config.Auth.TokenHeader}, nil
	}

	client, err := NewRedisClient(config.Auth.RedisURL)
	if err != nil {
		return nil, err
	}

	return &Auth{
		enabled:     true,
		tokens:      NewTokenManager(client, config.Auth.TokenKeyTemplate),
		tokenHeader: config.Auth.TokenHeader,
	}, nil
}

func (a *Auth) Enabled() bool {
	return a.enabled
}

func (a *Auth) Close() error {
	if a.tokens != nil {
		return a.tokens.Close()
	}
	return nil
}

// Authenticate returns the admin behind the bearer token of the request.
// With auth disabled every request passes with an empty identity.
func (a *Auth) Authenticate(r *http.Request) (string, error) {
	if !a.enabled {
		return "", nil
	}

	authHeader := r.Header.Get(a.tokenHeader)
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", ErrInvalidAuthHeader
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	info, err := a.tokens.LookupAdmin(r.Context(), token)
	if err != nil {
		logger.Debug.Printf("Token lookup failed: %v", err)
		return "", err
	}

	return info.Admin, nil
}
