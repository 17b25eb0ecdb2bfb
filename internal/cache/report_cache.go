package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/replenishment/internal/config"
	"github.com/andresuchdata/replenishment/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	dashboardKeyPrefix = "replenishment:dashboard"
	scanBatchSize      = 100
	defaultTTL         = time.Minute
)

// ReportCache stores computed dashboards keyed by their filter
type ReportCache interface {
	GetDashboard(ctx context.Context, filter domain.ReportFilter) (*domain.Dashboard, bool, error)
	SetDashboard(ctx context.Context, filter domain.ReportFilter, d *domain.Dashboard) error
	InvalidateAll(ctx context.Context) error
	Close() error
}

type redisReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopReportCache struct{}

// NewReportCache connects to redis when caching is enabled and falls back to a noop cache otherwise
func NewReportCache(ctx context.Context, cfg config.CacheConfig) (ReportCache, error) {
	if !cfg.Enabled {
		return NewNoopReportCache(), nil
	}

	opts, err := redisOptions(cfg)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := cfg.DashboardTTL()
	if ttl <= 0 {
		ttl = defaultTTL
	}

	return &redisReportCache{client: client, ttl: ttl}, nil
}

func NewNoopReportCache() ReportCache {
	return &noopReportCache{}
}

func redisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}
	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}

func (c *redisReportCache) GetDashboard(ctx context.Context, filter domain.ReportFilter) (*domain.Dashboard, bool, error) {
	payload, err := c.client.Get(ctx, DashboardKey(filter)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var d domain.Dashboard
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, false, fmt.Errorf("decode dashboard cache: %w", err)
	}
	return &d, true, nil
}

func (c *redisReportCache) SetDashboard(ctx context.Context, filter domain.ReportFilter, d *domain.Dashboard) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dashboard cache: %w", err)
	}
	if err := c.client.Set(ctx, DashboardKey(filter), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// InvalidateAll drops every cached dashboard, scanning in batches
func (c *redisReportCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	pattern := dashboardKeyPrefix + ":*"
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan failed: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete failed: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (c *redisReportCache) Close() error {
	return c.client.Close()
}

func (n *noopReportCache) GetDashboard(ctx context.Context, filter domain.ReportFilter) (*domain.Dashboard, bool, error) {
	return nil, false, nil
}

func (n *noopReportCache) SetDashboard(ctx context.Context, filter domain.ReportFilter, d *domain.Dashboard) error {
	return nil
}

func (n *noopReportCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func (n *noopReportCache) Close() error {
	return nil
}

// DashboardKey returns the redis key of a filter
func DashboardKey(filter domain.ReportFilter) string {
	return fmt.Sprintf("%s:%s", dashboardKeyPrefix, filterHash(filter))
}

// filterHash ignores pagination, which never changes a dashboard
func filterHash(filter domain.ReportFilter) string {
	parts := []string{"top=" + strconv.Itoa(filter.TopN)}
	if !filter.From.IsZero() {
		parts = append(parts, "from="+filter.From.UTC().Format(time.RFC3339))
	}
	if !filter.To.IsZero() {
		parts = append(parts, "to="+filter.To.UTC().Format(time.RFC3339))
	}

	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
