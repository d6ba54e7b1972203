// Package app 根据配置组装后端及其上的服务
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/controla/internal/cache"
	"github.com/controla/internal/config"
	"github.com/controla/internal/db"
	"github.com/controla/internal/logger"
	"github.com/controla/internal/service"
	"github.com/controla/internal/store"
	"github.com/controla/internal/store/sqlstore"
	"github.com/controla/internal/supabase"
	"go.uber.org/zap"
)

// App 持有 HTTP 服务与命令行共用的服务
type App struct {
	Auth      *service.AuthService
	Habits    *service.HabitService
	Reminders *service.ReminderService
	Stats     *service.StatsService

	backend store.Backend
	cache   *cache.StatsCache
}

// New 打开配置的后端，设置了 REDIS_ADDR 时同时连接统计缓存
// Redis 不可用时记录日志并在无缓存模式下运行
func New(ctx context.Context, cfg config.AppConfig) (*App, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	backend, err := OpenBackend(cfg)
	if err != nil {
		return nil, err
	}

	var statsCache *cache.StatsCache
	if cfg.CacheEnabled() {
		statsCache, err = cache.NewStatsCache(ctx, cache.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.StatsCacheTTL,
		})
		if err != nil {
			logger.Logger.Warn("stats cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			statsCache = nil
		}
	}

	a := NewWithBackend(backend, statsCache, loc)
	a.cache = statsCache

	logger.Logger.Info("app ready",
		zap.String("backend", cfg.StoreBackend),
		zap.Bool("stats_cache", statsCache != nil),
		zap.String("timezone", loc.String()),
	)
	return a, nil
}

// NewWithBackend 在已打开的后端上组装服务，statsCache 可以为 nil
func NewWithBackend(backend store.Backend, statsCache *cache.StatsCache, loc *time.Location) *App {
	var c service.StatsCache
	if statsCache != nil {
		c = statsCache
	}
	stats := service.NewStatsService(backend, backend, c)

	return &App{
		Auth:      service.NewAuthService(backend),
		Habits:    service.NewHabitService(backend, stats, loc),
		Reminders: service.NewReminderService(backend, stats),
		Stats:     stats,
		backend:   backend,
	}
}

// OpenBackend 返回 cfg.StoreBackend 指定的后端
func OpenBackend(cfg config.AppConfig) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite, "":
		gdb, err := db.Open(db.DriverSQLite, cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return sqlstore.New(gdb), nil
	case config.BackendPostgres:
		gdb, err := db.Open(db.DriverPostgres, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return sqlstore.New(gdb), nil
	case config.BackendSupabase:
		if cfg.SupabaseURL == "" || cfg.SupabaseAnonKey == "" {
			return nil, config.ErrMissingSupabase
		}
		return supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.SupabaseTimeout), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.StoreBackend)
	}
}

// Close 释放后端与缓存
func (a *App) Close() error {
	var errs []error
	if a.backend != nil {
		errs = append(errs, a.backend.Close())
	}
	if a.cache != nil {
		errs = append(errs, a.cache.Close())
	}
	return errors.Join(errs...)
}
