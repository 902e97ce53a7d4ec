package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fallbackTTL applies when every cookie is a browser-session cookie.
const fallbackTTL = 7 * 24 * time.Hour

// RedisStore keeps the record under one key whose TTL follows the earliest
// cookie expiry.
type RedisStore struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

// RedisOptions configures NewRedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Key      string
}

// NewRedisStore connects to Redis and verifies the server answers.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return newRedisStoreWithClient(client, opts.Key), nil
}

func newRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "mixchapters:session"
	}
	return &RedisStore{client: client, key: key, now: time.Now}
}

// Load fetches the record, or ErrNoRecord when the key is absent.
func (s *RedisStore) Load(ctx context.Context) (Record, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNoRecord
		}
		return Record{}, fmt.Errorf("read session from redis: %w", err)
	}
	var record Record
	if err := json.Unmarshal(val, &record); err != nil {
		return Record{}, fmt.Errorf("decode session from redis: %w", err)
	}
	return record, nil
}

// Save stores the record with a TTL ending at the earliest cookie expiry.
func (s *RedisStore) Save(ctx context.Context, record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := fallbackTTL
	if earliest, ok := record.EarliestExpiry(); ok {
		ttl = earliest.Sub(s.now())
		if ttl <= 0 {
			return s.Delete(ctx)
		}
	}
	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("write session to redis: %w", err)
	}
	return nil
}

// Delete removes the key.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete session from redis: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
