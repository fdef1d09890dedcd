package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/undantag/internal/models"
)

const (
	timeFormat       = "2006-01-02 15:04:05"
	adminIndexKeyTpl = "admin_tokens:%s" // admin_tokens:${admin}
	tokenPrefix      = "sk-undantag-"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenManager keeps admin bearer tokens as Redis hashes. The hash key is
// built from keyTemplate by substituting {token}.
type TokenManager struct {
	redis       *redis.Client
	keyTemplate string
	now         func() time.Time
}

func NewTokenManager(redis *redis.Client, keyTemplate string) *TokenManager {
	if keyTemplate == "" {
		keyTemplate = defaultTokenKeyTemplate
	}
	return &TokenManager{
		redis:       redis,
		keyTemplate: keyTemplate,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func generateToken() (string, error) {
	randomBytes := make([]byte, 12)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	return tokenPrefix + hex.EncodeToString(randomBytes), nil
}

func (tm *TokenManager) tokenKey(token string) string {
	return strings.NewReplacer("{token}", token).Replace(tm.keyTemplate)
}

func (tm *TokenManager) IssueAdminToken(ctx context.Context, admin string) (*models.TokenInfo, error) {
	admin = strings.TrimSpace(admin)
	if admin == "" {
		return nil, fmt.Errorf("admin name is required")
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	now := tm.now()
	pipe := tm.redis.TxPipeline()
	pipe.HSet(ctx, tm.tokenKey(token), map[string]interface{}{
		"token":                 token,
		"admin":                 admin,
		"request_count":         0,
		"last_request_dttm_utc": "",
		"created_dttm_utc":      now.Format(timeFormat),
	})
	pipe.SAdd(ctx, fmt.Sprintf(adminIndexKeyTpl, admin), token)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &models.TokenInfo{
		Token:       token,
		Admin:       admin,
		CreatedTime: now.Truncate(time.Second),
	}, nil
}

// LookupAdmin resolves a token to its admin and records the request.
func (tm *TokenManager) LookupAdmin(ctx context.Context, token string) (*models.TokenInfo, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return nil, ErrTokenNotFound
	}
	key := tm.tokenKey(token)

	values, err := tm.redis.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get token info: %w", err)
	}
	if len(values) == 0 || values["token"] != token {
		return nil, ErrTokenNotFound
	}

	now := tm.now()
	pipe := tm.redis.Pipeline()
	count := pipe.HIncrBy(ctx, key, "request_count", 1)
	pipe.HSet(ctx, key, "last_request_dttm_utc", now.Format(timeFormat))

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to update token stats: %w", err)
	}

	createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])

	return &models.TokenInfo{
		Token:           token,
		Admin:           values["admin"],
		RequestCount:    int(count.Val()),
		LastRequestTime: now.Truncate(time.Second),
		CreatedTime:     createdTime,
	}, nil
}

func (tm *TokenManager) RevokeAdminToken(ctx context.Context, token string) error {
	key := tm.tokenKey(token)

	admin, err := tm.redis.HGet(ctx, key, "admin").Result()
	if err == redis.Nil {
		return ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check token: %w", err)
	}

	pipe := tm.redis.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, fmt.Sprintf(adminIndexKeyTpl, admin), token)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (tm *TokenManager) ListAdminTokens(ctx context.Context, admin string) ([]models.TokenInfo, error) {
	tokens, err := tm.redis.SMembers(ctx, fmt.Sprintf(adminIndexKeyTpl, admin)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens of %s: %w", admin, err)
	}
	sort.Strings(tokens)

	infos := make([]models.TokenInfo, 0, len(tokens))
	for _, token := range tokens {
		values, err := tm.redis.HGetAll(ctx, tm.tokenKey(token)).Result()
		if err != nil || len(values) == 0 {
			continue
		}

		lastReqTime, _ := time.Parse(timeFormat, values["last_request_dttm_utc"])
		createdTime, _ := time.Parse(timeFormat, values["created_dttm_utc"])
		reqCount, _ := strconv.Atoi(values["request_count"])

		infos = append(infos, models.TokenInfo{
			Token:           token,
			Admin:           values["admin"],
			RequestCount:    reqCount,
			LastRequestTime: lastReqTime,
			CreatedTime:     createdTime,
		})
	}

	return infos, nil
}

func (tm *TokenManager) Close() error {
	if tm.redis != nil {
		return tm.redis.Close()
	}
	return nil
}
