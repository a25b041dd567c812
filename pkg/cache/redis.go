package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/file-drop/file-drop-backend/pkg/api"
	"github.com/file-drop/file-drop-backend/pkg/config"
	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	client *redis.Client
}

func NewRedisCache() *redisCache {
	c := config.Get()
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisUrl(),
		Username: c.Clients.Redis.Username,
		Password: c.Clients.Redis.Password,
		DB:       c.Clients.Redis.DB,
	})
	return &redisCache{
		client: client,
	}
}

// fileRecordKey returns the key for file record caching
func fileRecordKey(uuid string) string {
	return fmt.Sprintf("file-record:%v", uuid)
}

// GetFileRecord tries to retrieve a cached file record by UUID
func (c *redisCache) GetFileRecord(ctx context.Context, uuid string) (*api.FileRecordResponse, error) {
	var record api.FileRecordResponse
	buf, err := c.get(ctx, fileRecordKey(uuid))
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(buf, &record)
	if err != nil {
		return nil, fmt.Errorf("redis unmarshal error: %w", err)
	}
	return &record, nil
}

// SetFileRecord loads the cache with a file record
func (c *redisCache) SetFileRecord(ctx context.Context, uuid string, response api.FileRecordResponse) error {
	buf, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("unable to marshal for Redis cache: %w", err)
	}

	c.client.Set(ctx, fileRecordKey(uuid), string(buf), config.Get().Clients.Redis.Expiration)
	return nil
}

// DeleteFileRecord drops a cached file record, if present
func (c *redisCache) DeleteFileRecord(ctx context.Context, uuid string) error {
	cmd := c.client.Del(ctx, fileRecordKey(uuid))
	if cmd.Err() != nil {
		return fmt.Errorf("redis delete error: %w", cmd.Err())
	}
	return nil
}

func (c *redisCache) get(ctx context.Context, key string) ([]byte, error) {
	cmd := c.client.Get(ctx, key)
	if errors.Is(cmd.Err(), redis.Nil) {
		return nil, NotFound
	} else if cmd.Err() != nil {
		return nil, fmt.Errorf("redis error: %w", cmd.Err())
	}

	buf, err := cmd.Bytes()
	if err != nil {
		return nil, fmt.Errorf("redis bytes conversion error: %w", err)
	}
	return buf, err
}
