// Package redisstore is a Redis-backed store.ChallengeStore, grounded
// on achetronic-adk-utils-go's RedisSessionService: a single
// *redis.Client wrapped with connection defaults and a namespaced key
// helper.
//
// Redis's native key TTL does the expiry work for us, so unlike
// pgstore there is no expires_at column to check by hand — SET EX and
// GETDEL map directly onto the store contract.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agentauth/core/internal/store"
	"github.com/agentauth/core/pkg/models"
)

var _ store.ChallengeStore = (*Store)(nil)

// Config mirrors RedisSessionServiceConfig's defaulting pattern: zero
// values are filled in by New.
type Config struct {
	Addr     string
	Password string
	DB       int
	KeyPrefix string
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = "localhost:6379"
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "agentauth:challenge:"
	}
}

// Store is a Redis-backed ChallengeStore.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to Redis and verifies reachability with a bounded Ping,
// the same guard RedisSessionService.New performs before returning.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.setDefaults()
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redisstore: ping: %w", err)
	}
	return &Store{client: client, prefix: cfg.KeyPrefix}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

// Set stores record under id with TTL via Redis's native key
// expiration.
func (s *Store) Set(id string, record models.ChallengeRecord, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("redisstore: marshal record: %w", err)
	}
	return s.client.Set(context.Background(), s.key(id), payload, ttl).Err()
}

// Get returns the record for id, or absent if the key does not exist
// or has expired.
func (s *Store) Get(id string) (models.ChallengeRecord, bool, error) {
	payload, err := s.client.Get(context.Background(), s.key(id)).Bytes()
	if err == redis.Nil {
		return models.ChallengeRecord{}, false, nil
	}
	if err != nil {
		return models.ChallengeRecord{}, false, fmt.Errorf("redisstore: get: %w", err)
	}
	var rec models.ChallengeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return models.ChallengeRecord{}, false, fmt.Errorf("redisstore: unmarshal record: %w", err)
	}
	return rec, true, nil
}

// Delete atomically pops the record for id via GETDEL, which Redis
// serializes per key — giving the same single-winner guarantee the
// in-memory store gets from its mutex (§5).
func (s *Store) Delete(id string) (models.ChallengeRecord, bool, error) {
	payload, err := s.client.GetDel(context.Background(), s.key(id)).Bytes()
	if err == redis.Nil {
		return models.ChallengeRecord{}, false, nil
	}
	if err != nil {
		return models.ChallengeRecord{}, false, fmt.Errorf("redisstore: getdel: %w", err)
	}
	var rec models.ChallengeRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return models.ChallengeRecord{}, false, fmt.Errorf("redisstore: unmarshal record: %w", err)
	}
	return rec, true, nil
}
