package callstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arassiq/SafeSenior/internal/domain"
	"github.com/arassiq/SafeSenior/internal/logger"
)

const scanBatchSize = 100

// RedisStore keeps call records in Redis with a TTL so stale calls
// age out without a janitor.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

// NewRedisStore creates a call store. A non-positive ttl falls back to DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (s *RedisStore) key(callID string) string {
	return fmt.Sprintf("call:%s", callID)
}

// Put writes the call record, refreshing its TTL.
func (s *RedisStore) Put(ctx context.Context, call *domain.Call) error {
	data, err := json.Marshal(call)
	if err != nil {
		return fmt.Errorf("marshal call %s: %w", call.ID, err)
	}

	if err := s.client.Set(ctx, s.key(call.ID), data, s.ttl).Err(); err != nil {
		s.logger.Error("redis error storing call",
			logger.String("call_id", call.ID),
			logger.Error(err))
		return fmt.Errorf("store call %s: %w", call.ID, err)
	}
	return nil
}

// Get loads one call record.
func (s *RedisStore) Get(ctx context.Context, callID string) (*domain.Call, error) {
	data, err := s.client.Get(ctx, s.key(callID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrCallNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load call %s: %w", callID, err)
	}

	var call domain.Call
	if err := json.Unmarshal(data, &call); err != nil {
		return nil, fmt.Errorf("decode call %s: %w", callID, err)
	}
	return &call, nil
}

// List scans call keys and returns the most recently started records.
// SCAN over the call:* prefix is fine at screening volumes; the TTL keeps
// the keyspace small.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*domain.Call, error) {
	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := s.client.Scan(ctx, cursor, s.key("*"), scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("scan calls: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return []*domain.Call{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load calls: %w", err)
	}

	calls := make([]*domain.Call, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Key expired between SCAN and MGET
			continue
		}
		var call domain.Call
		if err := json.Unmarshal([]byte(raw), &call); err != nil {
			s.logger.Warn("skipping undecodable call record",
				logger.String("key", keys[i]),
				logger.Error(err))
			continue
		}
		calls = append(calls, &call)
	}

	sort.Slice(calls, func(i, j int) bool {
		return calls[i].StartedAt.After(calls[j].StartedAt)
	})
	if limit > 0 && len(calls) > limit {
		calls = calls[:limit]
	}
	return calls, nil
}
