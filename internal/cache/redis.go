package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/craftmarket/salesagg/internal/core/aggregation"
	redis "github.com/redis/go-redis/v9"
)

const keyPrefix = "salesagg:aggregate:"

// Redis stores documents as JSON blobs with a TTL.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a cache on a new client.
func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisWithClient(client, ttl)
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis) Close() error {
	return c.client.Close()
}

func (c *Redis) Get(ctx context.Context, id string) (*aggregation.SalesAggregate, bool, error) {
	val, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", id, err)
	}

	var doc aggregation.SalesAggregate
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, false, fmt.Errorf("decode cached aggregate %s: %w", id, err)
	}
	return &doc, true, nil
}

func (c *Redis) Set(ctx context.Context, doc aggregation.SalesAggregate) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode aggregate %s: %w", doc.ID, err)
	}
	if err := c.client.Set(ctx, Key(doc.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", doc.ID, err)
	}
	return nil
}

// Fill stores doc only if no entry exists for its id.
func (c *Redis) Fill(ctx context.Context, doc aggregation.SalesAggregate) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode aggregate %s: %w", doc.ID, err)
	}
	if err := c.client.SetNX(ctx, Key(doc.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx %s: %w", doc.ID, err)
	}
	return nil
}

// Key is the redis key of a document id.
func Key(id string) string {
	return keyPrefix + id
}
