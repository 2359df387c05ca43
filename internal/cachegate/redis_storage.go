package cachegate

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/charlesng35/tarotgarden/internal/cache"
)

// redisKeyPrefix prefixes the hash that backs each generation.
const redisKeyPrefix = cache.KeyPrefix + "cachegate:"

// markerField keeps an otherwise empty generation hash alive so it can be listed.
const markerField = "\x00created"

// RedisStorage stores each generation as one Redis hash shared by every server instance.
type RedisStorage struct {
	client redis.UniversalClient
}

// NewRedisStorage wraps client.
func NewRedisStorage(client redis.UniversalClient) *RedisStorage {
	return &RedisStorage{client: client}
}

func (s *RedisStorage) Open(ctx context.Context, name string) (Cache, error) {
	if name == "" {
		return nil, errors.New("cache gate: store name is required")
	}
	key := redisKeyPrefix + name
	if err := s.client.HSetNX(ctx, key, markerField, "1").Err(); err != nil {
		return nil, err
	}
	return &redisCache{client: s.client, key: key}, nil
}

func (s *RedisStorage) Keys(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		names = append(names, strings.TrimPrefix(iter.Val(), redisKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func (s *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	n, err := s.client.Del(ctx, redisKeyPrefix+name).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type redisCache struct {
	client redis.UniversalClient
	key    string
}

func (c *redisCache) Match(ctx context.Context, key string) (*Response, bool, error) {
	raw, err := c.client.HGet(ctx, c.key, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *redisCache) Put(ctx context.Context, key string, resp *Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.HSet(ctx, c.key, key, raw).Err()
}

func (c *redisCache) Keys(ctx context.Context) ([]string, error) {
	fields, err := c.client.HKeys(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	keys := fields[:0]
	for _, f := range fields {
		if f != markerField {
			keys = append(keys, f)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
