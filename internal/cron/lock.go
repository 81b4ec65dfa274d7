package cron

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const defaultLockTTL = 10 * time.Minute

// Lock keeps cron cycles from overlapping across replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type ownedKeys interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
}

// RedisLock holds key for at most ttl. Each Acquire writes a fresh token, and
// Release only deletes the key while that token is still there, so a cycle
// that outlived its TTL cannot free another replica's lock.
type RedisLock struct {
	keys  ownedKeys
	key   string
	ttl   time.Duration
	token string
}

func NewRedisLock(keys ownedKeys, key string, ttl time.Duration) (*RedisLock, error) {
	switch {
	case keys == nil:
		return nil, errors.New("cron lock: redis client required")
	case key == "":
		return nil, errors.New("cron lock: key required")
	case ttl <= 0:
		ttl = defaultLockTTL
	}
	return &RedisLock{keys: keys, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := ulid.Make().String()
	won, err := l.keys.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("cron lock %s: %w", l.key, err)
	}
	if won {
		l.token = token
	}
	return won, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	token := l.token
	l.token = ""
	if _, err := l.keys.ReleaseIfOwner(ctx, l.key, token); err != nil {
		return fmt.Errorf("cron lock %s: release: %w", l.key, err)
	}
	return nil
}

// LocalLock serializes cycles within one process.
type LocalLock struct {
	mu sync.Mutex
}

func NewLocalLock() *LocalLock { return &LocalLock{} }

func (l *LocalLock) Acquire(context.Context) (bool, error) {
	return l.mu.TryLock(), nil
}

// Release is a no-op when the lock is not held.
func (l *LocalLock) Release(context.Context) error {
	if !l.mu.TryLock() {
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()
	return nil
}
