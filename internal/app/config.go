package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/shrimpsizemoose/undantag/internal/paging"
)

const (
	defaultPageSize          = 20
	defaultMaxPageSize       = 100
	defaultAssigneesPageSize = 10
	defaultAssigneesMaxSize  = 200
	defaultSimpleLimit       = 10
	defaultSimpleMaxLimit    = 100
	defaultShutdownTimeout   = 10
	defaultTokenHeader       = "Authorization"
	defaultTokenKeyTemplate  = "admin_token:{token}"
)

type HeaderConfig struct {
	Name  string `toml:"name"`
	Value string `toml:"value"`
}

type Config struct {
	Server struct {
		Port                   string `toml:"port"`
		EnableAuth             bool   `toml:"enable_auth"`
		ShutdownTimeoutSeconds int    `toml:"shutdown_timeout_seconds"`
	} `toml:"server"`

	Auth struct {
		RedisURL         string `toml:"redis_url"`
		TokenHeader      string `toml:"token_header"`
		TokenKeyTemplate string `toml:"token_key_template"`
	} `toml:"auth"`

	API struct {
		RequiredHeaders []HeaderConfig `toml:"required_headers"`
	} `toml:"api"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
	} `toml:"database"`

	Paging struct {
		DefaultSize          int `toml:"default_size"`
		MaxSize              int `toml:"max_size"`
		AssigneesDefaultSize int `toml:"assignees_default_size"`
		AssigneesMaxSize     int `toml:"assignees_max_size"`
		SimpleDefaultLimit   int `toml:"simple_default_limit"`
		SimpleMaxLimit       int `toml:"simple_max_limit"`
	} `toml:"paging"`
}

// LoadConfig reads the TOML file, then lets a .env file and UNDANTAG_*
// variables override the connection settings.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(path, data)
}

func ParseConfig(path string, data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf(
			"error reading config file %s\n> Error: %w\n> Content:\n%s",
			path,
			err,
			string(data),
		)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error.Printf("Failed to load .env file: %v", err)
	}
	config.applyEnv()
	config.applyDefaults()

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :9999")
	}

	logger.Debug.Printf("Loaded paging config: %+v", config.Paging)

	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("UNDANTAG_DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("UNDANTAG_REDIS_URL"); v != "" {
		c.Auth.RedisURL = v
	}
	if v := os.Getenv("UNDANTAG_PORT"); v != "" {
		c.Server.Port = v
	}
}

func (c *Config) applyDefaults() {
	orDefault := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	orDefault(&c.Paging.DefaultSize, defaultPageSize)
	orDefault(&c.Paging.MaxSize, defaultMaxPageSize)
	orDefault(&c.Paging.AssigneesDefaultSize, defaultAssigneesPageSize)
	orDefault(&c.Paging.AssigneesMaxSize, defaultAssigneesMaxSize)
	orDefault(&c.Paging.SimpleDefaultLimit, defaultSimpleLimit)
	orDefault(&c.Paging.SimpleMaxLimit, defaultSimpleMaxLimit)
	orDefault(&c.Server.ShutdownTimeoutSeconds, defaultShutdownTimeout)

	if c.Auth.TokenHeader == "" {
		c.Auth.TokenHeader = defaultTokenHeader
	}
	if c.Auth.TokenKeyTemplate == "" {
		c.Auth.TokenKeyTemplate = defaultTokenKeyTemplate
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "./migrations"
	}
}

func (c *Config) ExceptionLimits() paging.Limits {
	return paging.Limits{DefaultSize: c.Paging.DefaultSize, MaxSize: c.Paging.MaxSize}
}

func (c *Config) AssigneeLimits() paging.Limits {
	return paging.Limits{DefaultSize: c.Paging.AssigneesDefaultSize, MaxSize: c.Paging.AssigneesMaxSize}
}

func (c *Config) SimpleLimits() paging.Limits {
	return paging.Limits{DefaultSize: c.Paging.SimpleDefaultLimit, MaxSize: c.Paging.SimpleMaxLimit}
}

func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
