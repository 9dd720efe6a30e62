package services

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to redis and verifies the connection
func NewRedisClient(ctx context.Context, address, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// RedisProbe checks redis reachability
type RedisProbe struct {
	BaseProbe
	client *redis.Client
}

// NewRedisProbe creates a probe on an existing client
func NewRedisProbe(client *redis.Client) *RedisProbe {
	return &RedisProbe{
		BaseProbe: BaseProbe{name: "redis"},
		client:    client,
	}
}

// HealthCheck verifies Redis connectivity
func (p *RedisProbe) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
