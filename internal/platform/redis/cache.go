// Package redis wraps a go-redis client as a small byte cache shared by the
// analysis and lexicon services.
package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MuhammadMuneeb007/OpenGrammar/internal/platform/logger"
)

const DefaultPrefix = "opengrammar:"

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Cache is safe for concurrent use. A nil *Cache is a cache that never hits.
type Cache struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewCache connects to cfg.Addr and verifies the connection with a ping.
func NewCache(ctx context.Context, log *logger.Logger, cfg Config) (*Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewCacheWithClient(log, rdb, cfg.Prefix, cfg.TTL), nil
}

func NewCacheWithClient(log *logger.Logger, rdb goredis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{
		log:    log.With("service", "RedisCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Key hashes parts into a fixed-length key under namespace.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the stored value and whether it was found.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, nil
	}
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return b, true, nil
}

func (c *Cache) Set(ctx context.Context, key string, val []byte) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	if err := c.rdb.Set(ctx, c.prefix+key, val, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *Cache) Ping(ctx context.Context) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Client exposes the underlying connection for health collectors.
func (c *Cache) Client() goredis.UniversalClient {
	if c == nil {
		return nil
	}
	return c.rdb
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
