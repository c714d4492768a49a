package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appmetrics "github.com/safety-tracker/backend/internal/metrics"
	"github.com/safety-tracker/backend/pkg/circuitbreaker"
	"github.com/safety-tracker/backend/pkg/logger"
	"github.com/safety-tracker/backend/pkg/utils"
)

// Client memoizes prepared view tables in Redis. Entries are pure functions
// of their key, so no invalidation is needed beyond the TTL. All calls go
// through a circuit breaker: a cache outage degrades to recomputation, never
// to request failure.
type Client struct {
	client  *redis.Client
	breaker *circuitbreaker.CircuitBreaker
	ttl     time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	breaker := circuitbreaker.New("view-cache", circuitbreaker.Config{
		FailureThreshold: 5,
		Timeout:          30 * time.Second,
		Logger:           logger.Log,
	})

	logger.Info("View cache initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)),
		zap.Duration("ttl", ttl),
	)

	return &Client{client: client, breaker: breaker, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Get loads a cached view into v. A miss, a decode failure or an open
// breaker all report false so the caller recomputes.
func (c *Client) Get(ctx context.Context, key string, v interface{}) bool {
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.client.Get(ctx, viewKey(key)).Bytes()
		if err == redis.Nil {
			data = nil
			return nil
		}
		return err
	})
	if err != nil || data == nil {
		appmetrics.CacheHits.WithLabelValues("miss").Inc()
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		logger.Warn("Failed to decode cached view", zap.String("key", key), zap.Error(err))
		appmetrics.CacheHits.WithLabelValues("miss").Inc()
		return false
	}

	appmetrics.CacheHits.WithLabelValues("hit").Inc()
	return true
}

// Set stores a view with the configured TTL. Failures are logged and
// dropped.
func (c *Client) Set(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("Failed to encode view for cache", zap.String("key", key), zap.Error(err))
		return
	}

	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, viewKey(key), data, c.ttl).Err()
	})
	if err != nil {
		logger.Debug("View cache write skipped", zap.String("key", key), zap.Error(err))
	}
}

func viewKey(key string) string {
	return "view:" + utils.HashString(key)
}
