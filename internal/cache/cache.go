/*
Copyright 2024 Bookbank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// Cache stores small values shared by every service instance.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get decodes the value stored under key into data. It reports false
	// without an error when the key is not cached.
	Get(ctx context.Context, key string, data interface{}) (bool, error)
	Delete(ctx context.Context, key string) error
}

// RedisCache keeps entries in Redis with a TinyLFU in-process layer in front.
type RedisCache struct {
	cache *cache.Cache
}

const (
	defaultLocalSize = 128000
	defaultLocalTTL  = time.Minute
)

// NewRedisCache builds a cache on client. A non-positive localSize disables
// the in-process layer.
func NewRedisCache(client redis.UniversalClient, localSize int, localTTL time.Duration) *RedisCache {
	opts := &cache.Options{Redis: client}
	if localSize > 0 {
		if localTTL <= 0 {
			localTTL = defaultLocalTTL
		}
		opts.LocalCache = cache.NewTinyLFU(localSize, localTTL)
	}
	return &RedisCache{cache: cache.New(opts)}
}

// NewDefaultRedisCache is NewRedisCache with the default local layer.
func NewDefaultRedisCache(client redis.UniversalClient) *RedisCache {
	return NewRedisCache(client, defaultLocalSize, defaultLocalTTL)
}

func (r *RedisCache) Set(ctx context.Context, key string, data interface{}, ttl time.Duration) error {
	return r.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   key,
		Value: data,
		TTL:   ttl,
	})
}

func (r *RedisCache) Get(ctx context.Context, key string, data interface{}) (bool, error) {
	err := r.cache.Get(ctx, key, data)
	if errors.Is(err, cache.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.cache.Delete(ctx, key)
}
