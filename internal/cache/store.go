package cache

import (
	"context"
	"strings"
	"time"
)

// Store represents a shared key-value cache used across the application.
// A zero ttl means the value never expires.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// scopedStore namespaces every key of an underlying Store.
type scopedStore struct {
	inner  Store
	prefix string
}

// Scoped returns a Store whose keys are prefixed with "<prefix>:". It is used to give each
// device its own usage record while the gate keeps using a fixed key.
func Scoped(inner Store, prefix string) Store {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if inner == nil || prefix == "" {
		return inner
	}
	return &scopedStore{inner: inner, prefix: prefix + ":"}
}

func (s *scopedStore) key(k string) string { return s.prefix + k }

func (s *scopedStore) IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	return s.inner.IncrementWithTTL(ctx, s.key(key), window)
}

func (s *scopedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.inner.Set(ctx, s.key(key), value, ttl)
}

func (s *scopedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.inner.Get(ctx, s.key(key))
}

func (s *scopedStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	scoped := make([]string, len(keys))
	for i, k := range keys {
		scoped[i] = s.key(k)
	}
	return s.inner.Delete(ctx, scoped...)
}
