package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session transaction registries in redis so multiple wallet
// processes share one idempotency view. SETNX/HSETNX provide the atomic
// check-and-insert the Store contract requires.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore returns a redis-backed Store. Sessions expire after ttl of
// inactivity; a provider round is much shorter than any sane ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionAccountKey(sessionID string) string {
	return fmt.Sprintf("session:%s:account", sessionID)
}

func sessionTxKey(sessionID string) string {
	return fmt.Sprintf("session:%s:transactions", sessionID)
}

func (s *RedisStore) BindSession(ctx context.Context, sessionID, accountID string) error {
	key := sessionAccountKey(sessionID)
	set, err := s.client.SetNX(ctx, key, accountID, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to bind session: %w", err)
	}
	if set {
		return nil
	}

	bound, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to read session binding: %w", err)
	}
	if bound != accountID {
		return ErrSessionConflict
	}
	return nil
}

func (s *RedisStore) Record(ctx context.Context, sessionID string, rec TransactionRecord) (bool, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to encode transaction record: %w", err)
	}

	key := sessionTxKey(sessionID)
	inserted, err := s.client.HSetNX(ctx, key, rec.TransactionID, payload).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record transaction: %w", err)
	}
	if inserted {
		s.client.Expire(ctx, key, s.ttl)
	}
	return inserted, nil
}

func (s *RedisStore) Lookup(ctx context.Context, sessionID, transactionID string) (*TransactionRecord, error) {
	payload, err := s.client.HGet(ctx, sessionTxKey(sessionID), transactionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up transaction: %w", err)
	}

	var rec TransactionRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode transaction record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Remove(ctx context.Context, sessionID, transactionID string) error {
	if err := s.client.HDel(ctx, sessionTxKey(sessionID), transactionID).Err(); err != nil {
		return fmt.Errorf("failed to remove transaction: %w", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
