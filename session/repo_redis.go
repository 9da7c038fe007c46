package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "studyforge:session:"

// maxUpdateRetries bounds the optimistic transaction retry loop. Contention
// on a single user's session is rare, so a handful of attempts is plenty.
const maxUpdateRetries = 5

// RedisRepo is a Redis-backed implementation of Repo for deployments where
// session state must survive restarts or be shared between instances.
// Each session is a JSON blob with a rolling TTL.
type RedisRepo struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRepo constructs a Redis-backed session repository and verifies the
// connection.
func NewRedisRepo(url string, ttl time.Duration) (*RedisRepo, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisRepo{client: client, ttl: ttl}, nil
}

func (r *RedisRepo) Get(ctx context.Context, sessionID string) (Data, error) {
	if sessionID == "" {
		return Data{}, errors.New("sessionID is required")
	}

	raw, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return Data{}, nil
	}
	if err != nil {
		return Data{}, fmt.Errorf("redis get session: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return Data{}, fmt.Errorf("decode session data: %w", err)
	}
	return data, nil
}

// Update runs fn inside an optimistic WATCH transaction so the
// read-modify-write is atomic with respect to concurrent requests on the
// same session.
func (r *RedisRepo) Update(ctx context.Context, sessionID string, fn func(*Data) error) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	key := sessionKeyPrefix + sessionID

	txn := func(tx *redis.Tx) error {
		var data Data
		raw, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return fmt.Errorf("redis get session: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal([]byte(raw), &data); err != nil {
				return fmt.Errorf("decode session data: %w", err)
			}
		}

		if err := fn(&data); err != nil {
			return err
		}

		encoded, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("encode session data: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxUpdateRetries; i++ {
		err = r.client.Watch(ctx, txn, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("session update contention: %w", err)
}

func (r *RedisRepo) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}
	return r.client.Del(ctx, sessionKeyPrefix+sessionID).Err()
}

// Close releases the underlying Redis connection.
func (r *RedisRepo) Close() error {
	return r.client.Close()
}
