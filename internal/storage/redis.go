package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Pro7ech/rnsfhe/rlwe"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix of the keys, "rnsfhe:ct:" if empty.
	Prefix string
	// TTL of the stored ciphertexts, zero meaning no expiration.
	TTL time.Duration
}

// RedisStore is a [Store] backed by Redis.
type RedisStore struct {
	params rlwe.Parameters
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to the Redis server of cfg and returns a new
// [RedisStore] for the parameters.
func NewRedisStore(cfg RedisConfig, params rlwe.ParameterProvider) (*RedisStore, error) {

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisStoreFromClient(client, cfg.Prefix, cfg.TTL, params), nil
}

// NewRedisStoreFromClient returns a new [RedisStore] using an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string, ttl time.Duration, params rlwe.ParameterProvider) *RedisStore {

	if prefix == "" {
		prefix = "rnsfhe:ct:"
	}

	return &RedisStore{
		params: *params.GetRLWEParameters(),
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RedisStore) key(h Handle) string {
	return s.prefix + h.String()
}

func (s *RedisStore) Put(ctx context.Context, ct *rlwe.Ciphertext) (h Handle, err error) {

	var data []byte
	if data, h, err = encode(s.params, ct); err != nil {
		return h, fmt.Errorf("cannot Put: %w", err)
	}

	if err = s.client.Set(ctx, s.key(h), data, s.ttl).Err(); err != nil {
		return h, fmt.Errorf("cannot Put: %w", err)
	}

	return
}

func (s *RedisStore) Get(ctx context.Context, h Handle) (ct *rlwe.Ciphertext, err error) {

	data, err := s.client.Get(ctx, s.key(h)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("cannot Get %s: %w", h, ErrNotFound)
		}
		return nil, fmt.Errorf("cannot Get: %w", err)
	}

	if ct, err = decode(s.params, h, data); err != nil {
		return nil, fmt.Errorf("cannot Get: %w", err)
	}

	return
}

func (s *RedisStore) Delete(ctx context.Context, h Handle) error {
	if err := s.client.Del(ctx, s.key(h)).Err(); err != nil {
		return fmt.Errorf("cannot Delete: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
