// Package cache 在 Redis 中按用户缓存统计结果
// 缓存键带有代数，失效时只推进代数，不删除旧值
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/controla/internal/model"
	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultPrefix    = "controla"
	statsPrefix      = "stats"
	generationSuffix = "gen"
)

// Options 配置 Redis 连接
type Options struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// StatsCache 按用户 id 保存 model.Stats
type StatsCache struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewStatsCache 连接并 ping Redis
func NewStatsCache(ctx context.Context, opts Options) (*StatsCache, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return newStatsCache(client, opts), nil
}

func newStatsCache(client *goredis.Client, opts Options) *StatsCache {
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsCache{client: client, prefix: prefix, ttl: ttl}
}

// Generation 返回用户当前的缓存代数，从未失效过的用户为 0
func (c *StatsCache) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(userID)).Int64()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get stats generation: %w", err)
	}
	return gen, nil
}

// Get 读取指定代数的缓存，未命中返回 (零值, false, nil)
func (c *StatsCache) Get(ctx context.Context, userID string, gen int64) (model.Stats, bool, error) {
	raw, err := c.client.Get(ctx, c.statsKey(userID, gen)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return model.Stats{}, false, nil
		}
		return model.Stats{}, false, fmt.Errorf("get stats cache: %w", err)
	}

	var stats model.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return model.Stats{}, false, fmt.Errorf("decode stats cache: %w", err)
	}
	return stats, true, nil
}

// Set 写入指定代数的缓存
// 读取期间发生失效时代数已经前进，旧代数的值不会再被读到，随 TTL 过期
func (c *StatsCache) Set(ctx context.Context, userID string, gen int64, stats model.Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats cache: %w", err)
	}
	if err := c.client.Set(ctx, c.statsKey(userID, gen), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set stats cache: %w", err)
	}
	return nil
}

// Invalidate 推进用户的缓存代数
func (c *StatsCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Incr(ctx, c.generationKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate stats cache: %w", err)
	}
	return nil
}

func (c *StatsCache) Close() error {
	return c.client.Close()
}

func (c *StatsCache) statsKey(userID string, gen int64) string {
	return c.key(userID, strconv.FormatInt(gen, 10))
}

func (c *StatsCache) generationKey(userID string) string {
	return c.key(userID, generationSuffix)
}

func (c *StatsCache) key(userID, suffix string) string {
	var sb strings.Builder
	sb.WriteString(c.prefix)
	for _, part := range []string{statsPrefix, userID, suffix} {
		sb.WriteByte(':')
		sb.WriteString(part)
	}
	return sb.String()
}
