package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adverant/nexus/docscan-client/internal/errors"
)

// RedisStore keeps save order in a list and record bodies in a hash keyed by id
type RedisStore struct {
	client   *redis.Client
	orderKey string
	dataKey  string
}

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(ctx context.Context, redisURL string, keyPrefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreFromClient(client, keyPrefix), nil
}

// NewRedisStoreFromClient wraps an existing client
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "docscan:history"
	}
	return &RedisStore{
		client:   client,
		orderKey: keyPrefix + ":order",
		dataKey:  keyPrefix + ":records",
	}
}

func (s *RedisStore) Append(ctx context.Context, rec Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.NewStorageFailedError("append", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.dataKey, rec.ID, payload)
		pipe.RPush(ctx, s.orderKey, rec.ID)
		return nil
	})
	if err != nil {
		return errors.NewStorageFailedError("append", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	ids, err := s.client.LRange(ctx, s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, errors.NewStorageFailedError("list", err)
	}

	records := make([]Record, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	values, err := s.client.HMGet(ctx, s.dataKey, ids...).Result()
	if err != nil {
		return nil, errors.NewStorageFailedError("list", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// order entry without a body; skip it
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, errors.NewStorageFailedError("list", fmt.Errorf("decode record %s: %w", ids[i], err))
		}
		records = append(records, rec)
	}

	return records, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	raw, err := s.client.HGet(ctx, s.dataKey, id).Result()
	if stderrors.Is(err, redis.Nil) {
		return nil, errors.NewNotFoundError("history record", id)
	}
	if err != nil {
		return nil, errors.NewStorageFailedError("get", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, errors.NewStorageFailedError("get", fmt.Errorf("decode record %s: %w", id, err))
	}
	return &rec, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var removed *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.HDel(ctx, s.dataKey, id)
		pipe.LRem(ctx, s.orderKey, 0, id)
		return nil
	})
	if err != nil {
		return errors.NewStorageFailedError("delete", err)
	}
	if removed.Val() == 0 {
		return errors.NewNotFoundError("history record", id)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.orderKey, s.dataKey).Err(); err != nil {
		return errors.NewStorageFailedError("clear", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
