package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendSupabase = "supabase"
)

var (
	ErrMissingSupabase = errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required for the supabase backend")
	ErrUnknownBackend  = errors.New("unknown store backend")
)

// AppConfig 汇总运行服务与命令行所需的配置。
type AppConfig struct {
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":8080"`
	GinMode       string `env:"GIN_MODE" envDefault:"release"`
	SessionSecret string `env:"SESSION_SECRET" envDefault:"controla-dev-secret"`

	// 存储后端: sqlite, postgres, supabase
	StoreBackend string `env:"STORE_BACKEND" envDefault:"sqlite"`
	DatabasePath string `env:"DATABASE_PATH" envDefault:"controla.db"`
	DatabaseURL  string `env:"DATABASE_URL"`

	SupabaseURL     string        `env:"SUPABASE_URL"`
	SupabaseAnonKey string        `env:"SUPABASE_ANON_KEY"`
	SupabaseTimeout time.Duration `env:"SUPABASE_TIMEOUT" envDefault:"15s"`

	// Redis 为空时不启用统计缓存
	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	StatsCacheTTL time.Duration `env:"STATS_CACHE_TTL" envDefault:"5m"`

	Timezone string `env:"TIMEZONE" envDefault:"Local"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	LogOutput string `env:"LOG_OUTPUT" envDefault:"stdout"`
}

// Load 读取可选的 .env 文件和环境变量，并校验后端相关的必填项。
func Load() (AppConfig, error) {
	// .env 只在本地开发时存在
	_ = godotenv.Load()

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("parse environment: %w", err)
	}
	cfg.trim()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

func (c *AppConfig) trim() {
	for _, field := range []*string{
		&c.ListenAddr, &c.GinMode, &c.SessionSecret, &c.StoreBackend, &c.DatabasePath,
		&c.DatabaseURL, &c.SupabaseURL, &c.SupabaseAnonKey, &c.RedisAddr, &c.Timezone,
		&c.LogLevel, &c.LogFormat, &c.LogOutput,
	} {
		*field = strings.TrimSpace(*field)
	}
	c.StoreBackend = strings.ToLower(c.StoreBackend)
	c.SupabaseURL = strings.TrimRight(c.SupabaseURL, "/")
}

// Validate 检查所选后端需要的配置是否齐全。
func (c AppConfig) Validate() error {
	switch c.StoreBackend {
	case BackendSQLite:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres backend")
		}
	case BackendSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return ErrMissingSupabase
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.StoreBackend)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location 返回计算“今天”所用的时区。
func (c AppConfig) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CacheEnabled 表示是否配置了 Redis 统计缓存。
func (c AppConfig) CacheEnabled() bool {
	return c.RedisAddr != ""
}
