// Package cache mirrors the derived sport indexes into Redis so readers can
// resolve a bucket's props-index without touching the hierarchy on disk.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/enkday/prizepicks-data-mirror/internal/metrics"
	"github.com/enkday/prizepicks-data-mirror/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrCacheMiss is returned when no index is cached for a bucket and sport
var ErrCacheMiss = errors.New("cache miss")

const keyPrefix = "props:index"

// IndexKey returns the key holding one sport index of a bucket
func IndexKey(bucket models.Bucket, sportSlug string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, bucket, sportSlug)
}

// SportsKey returns the set key listing the sports cached for a bucket
func SportsKey(bucket models.Bucket) string {
	return fmt.Sprintf("%s:%s:sports", keyPrefix, bucket)
}

// IndexPublisher writes props indexes to Redis
type IndexPublisher struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIndexPublisher connects to Redis and verifies the connection
func NewIndexPublisher(addr, password string, db int, ttl time.Duration) (*IndexPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Str("addr", addr).Int("db", db).Msg("Connected to Redis")
	return &IndexPublisher{client: client, ttl: ttl}, nil
}

// PublishBucket replaces every cached index of a bucket in one transaction.
// Sports that are no longer present are removed.
func (p *IndexPublisher) PublishBucket(ctx context.Context, bucket models.Bucket, indexes []models.PropsIndex) error {
	start := time.Now()
	defer func() {
		metrics.RecordCacheOperation("publish", time.Since(start).Seconds())
	}()

	previous, err := p.client.SMembers(ctx, SportsKey(bucket)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list cached sports: %w", err)
	}

	payloads := make(map[string][]byte, len(indexes))
	for _, idx := range indexes {
		data, err := json.Marshal(idx)
		if err != nil {
			return fmt.Errorf("failed to marshal %s index: %w", idx.SportSlug, err)
		}
		payloads[idx.SportSlug] = data
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, slug := range previous {
			if _, ok := payloads[slug]; !ok {
				pipe.Del(ctx, IndexKey(bucket, slug))
			}
		}
		pipe.Del(ctx, SportsKey(bucket))

		for slug, data := range payloads {
			pipe.Set(ctx, IndexKey(bucket, slug), data, p.ttl)
			pipe.SAdd(ctx, SportsKey(bucket), slug)
		}
		if len(payloads) > 0 && p.ttl > 0 {
			pipe.Expire(ctx, SportsKey(bucket), p.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s indexes: %w", bucket, err)
	}

	log.Debug().
		Str("bucket", bucket.String()).
		Int("sports", len(payloads)).
		Msg("Published indexes to Redis")
	return nil
}

// GetIndex reads one cached sport index
func (p *IndexPublisher) GetIndex(ctx context.Context, bucket models.Bucket, sportSlug string) (*models.PropsIndex, error) {
	start := time.Now()
	defer func() {
		metrics.RecordCacheOperation("get", time.Since(start).Seconds())
	}()

	data, err := p.client.Get(ctx, IndexKey(bucket, sportSlug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get index: %w", err)
	}

	var idx models.PropsIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index: %w", err)
	}
	return &idx, nil
}

// Sports lists the sport slugs cached for a bucket
func (p *IndexPublisher) Sports(ctx context.Context, bucket models.Bucket) ([]string, error) {
	slugs, err := p.client.SMembers(ctx, SportsKey(bucket)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sports: %w", err)
	}
	return slugs, nil
}

// Close closes the Redis connection
func (p *IndexPublisher) Close() error {
	return p.client.Close()
}
