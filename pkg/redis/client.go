// Package redis holds the shared go-redis client and the key layout for
// idempotency records and distributed locks.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/wholesale-backend/pkg/config"
	"github.com/angelmondragon/wholesale-backend/pkg/logger"
)

// Keys look like ws:<kind>:<part>... with empty parts dropped.
const (
	keyRoot        = "ws"
	kindIdempotent = "idempotency"
	kindLock       = "lock"
)

// compareAndDelete removes KEYS[1] only while it still holds ARGV[1].
const compareAndDelete = `if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
end
return 0`

var errNotInitialized = errors.New("redis client not initialized")

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
	Eval(context.Context, string, []string, ...any) *redis.Cmd
}

// IdempotencyStore is what the HTTP idempotency middleware needs: claim a key,
// read it back, overwrite it with the final response, or release it.
type IdempotencyStore interface {
	IdempotencyKey(scope, id string) string
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

var _ IdempotencyStore = (*Client)(nil)

type Client struct {
	cmds   cmdable
	closer func() error
}

// New dials Redis and fails unless PING succeeds.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", opts.Addr, err)
	}
	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"addr": opts.Addr, "db": opts.DB}), "redis connected")
	}
	return &Client{cmds: rdb, closer: rdb.Close}, nil
}

// optionsFromConfig prefers the URL form. Settings from config only fill
// what the URL left unset.
func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case cfg.URL != "":
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opts = parsed
	case cfg.Address != "":
		opts = &redis.Options{Addr: cfg.Address, Password: cfg.Password}
	default:
		return nil, errors.New("redis url or address is required")
	}
	orConfig(&opts.DB, cfg.DB)
	orConfig(&opts.PoolSize, cfg.PoolSize)
	orConfig(&opts.MinIdleConns, cfg.MinIdleConns)
	orConfig(&opts.DialTimeout, cfg.DialTimeout)
	orConfig(&opts.ReadTimeout, cfg.ReadTimeout)
	orConfig(&opts.WriteTimeout, cfg.WriteTimeout)
	return opts, nil
}

func orConfig[T comparable](dst *T, fromConfig T) {
	var zero T
	if *dst == zero {
		*dst = fromConfig
	}
}

func (c *Client) store() (cmdable, error) {
	if c == nil || c.cmds == nil {
		return nil, errNotInitialized
	}
	return c.cmds, nil
}

func (c *Client) Ping(ctx context.Context) error {
	s, err := c.store()
	if err != nil {
		return err
	}
	return s.Ping(ctx).Err()
}

// Get returns redis.Nil when key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	s, err := c.store()
	if err != nil {
		return "", err
	}
	return s.Get(ctx, key).Result()
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	s, err := c.store()
	if err != nil {
		return err
	}
	return s.Set(ctx, key, value, ttl).Err()
}

func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s, err := c.store()
	if err != nil {
		return false, err
	}
	return s.SetNX(ctx, key, value, ttl).Result()
}

func (c *Client) Del(ctx context.Context, keys ...string) error {
	s, err := c.store()
	if err != nil {
		return err
	}
	return s.Del(ctx, keys...).Err()
}

// ReleaseIfOwner deletes key only while its value equals owner, and reports
// whether it did.
func (c *Client) ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error) {
	s, err := c.store()
	if err != nil {
		return false, err
	}
	n, err := s.Eval(ctx, compareAndDelete, []string{key}, owner).Int64()
	return n == 1, err
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return namespaced(kindIdempotent, scope, id)
}

// LockKey names a lock, e.g. LockKey("account", id).
func (c *Client) LockKey(parts ...string) string {
	return namespaced(kindLock, parts...)
}

func (c *Client) Close() error {
	if c == nil || c.closer == nil {
		return nil
	}
	return c.closer()
}

func namespaced(kind string, parts ...string) string {
	var b strings.Builder
	b.WriteString(keyRoot)
	b.WriteByte(':')
	b.WriteString(kind)
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			b.WriteByte(':')
			b.WriteString(p)
		}
	}
	return b.String()
}
