package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// redisStore is the subset of pkg/redis.Client used for distributed locks.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	LockKey(parts ...string) string
}

// Redis coordinates locks across processes with SETNX and an owner token.
type Redis struct {
	store        redisStore
	ttl          time.Duration
	retryBackoff time.Duration
	maxWait      time.Duration
}

// RedisOptions tunes lock expiry and polling.
type RedisOptions struct {
	TTL          time.Duration
	RetryBackoff time.Duration
	MaxWait      time.Duration
}

// NewRedis constructs a Redis-backed Locker.
func NewRedis(store redisStore, opts RedisOptions) (*Redis, error) {
	if store == nil {
		return nil, errors.New("lock: redis client required")
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 50 * time.Millisecond
	}
	return &Redis{
		store:        store,
		ttl:          opts.TTL,
		retryBackoff: opts.RetryBackoff,
		maxWait:      opts.MaxWait,
	}, nil
}

func (l *Redis) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if fn == nil {
		return ErrNoCallback
	}
	waitCtx := ctx
	if l.maxWait > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.maxWait)
		defer cancel()
	}

	fullKey := l.store.LockKey(key)
	token := uuid.NewString()

	for {
		ok, err := l.store.SetNX(waitCtx, fullKey, token, l.ttl)
		if err != nil {
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.retryBackoff)
		select {
		case <-waitCtx.Done():
			timer.Stop()
			return fmt.Errorf("lock: wait for %s: %w", key, waitCtx.Err())
		case <-timer.C:
		}
	}

	defer func() {
		// release with a fresh context so a cancelled caller still frees the key
		_, _ = l.store.ReleaseIfOwner(context.Background(), fullKey, token)
	}()
	return fn(ctx)
}
