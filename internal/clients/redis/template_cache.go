package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nexushq/nexus-backend/internal/logger"
	"github.com/nexushq/nexus-backend/internal/types"
	"github.com/nexushq/nexus-backend/internal/utils"
)

// CachedPlaybook is the immutable template definition held in redis.
// Journeys and responses are never cached; their consistency lives in
// postgres alone.
type CachedPlaybook struct {
	Template *types.PlaybookTemplate `json:"template"`
	Items    []*types.PlaybookItem   `json:"items"`
}

type TemplateCache interface {
	Get(ctx context.Context, name string) (*CachedPlaybook, error)
	Set(ctx context.Context, name string, cached *CachedPlaybook) error
	Close() error
}

type templateCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewTemplateCache(log *logger.Logger) (TemplateCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	ttlSeconds := utils.GetEnvAsInt("REDIS_TEMPLATE_TTL", 600, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &templateCache{
		log: log.With("service", "RedisTemplateCache"),
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (c *templateCache) Get(ctx context.Context, name string) (*CachedPlaybook, error) {
	if c == nil || c.rdb == nil {
		return nil, fmt.Errorf("redis template cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, cacheKey(name)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var cached CachedPlaybook
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, fmt.Errorf("decode cached playbook: %w", err)
	}
	return &cached, nil
}

func (c *templateCache) Set(ctx context.Context, name string, cached *CachedPlaybook) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis template cache not initialized")
	}
	if cached == nil {
		return nil
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, cacheKey(name), raw, c.ttl).Err()
}

func (c *templateCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func cacheKey(name string) string {
	return "playbook:template:" + strings.ToLower(strings.TrimSpace(name))
}
