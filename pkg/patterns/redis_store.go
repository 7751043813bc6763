package patterns

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/replaykit/replaykit/pkg/models"
)

const patternsKey = "replaykit:patterns"

// RedisStore shares the pattern table across processes. Patterns are stored
// as JSON values in a single hash keyed by signature; the upsert runs under
// a watch on that key so concurrent learners don't lose counts.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Upsert(ctx context.Context, signature string, length int, examples []models.Step) (*models.Pattern, error) {
	var result *models.Pattern

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		now := time.Now()
		pattern := &models.Pattern{
			Signature: signature,
			Length:    length,
			Examples:  examples,
			Frequency: 1,
			FirstSeen: now,
			LastSeen:  now,
		}

		value, err := tx.HGet(ctx, patternsKey, signature).Result()
		if err != nil && err != redis.Nil {
			return err
		}

		if err == nil {
			if err := json.Unmarshal([]byte(value), pattern); err != nil {
				return fmt.Errorf("failed to decode pattern %s: %w", signature, err)
			}

			pattern.Frequency++
			pattern.LastSeen = now
		}

		data, err := json.Marshal(pattern)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return pipe.HSet(ctx, patternsKey, signature, data).Err()
		})
		if err != nil {
			return err
		}

		result = pattern

		return nil
	}, patternsKey)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert pattern %s: %w", signature, err)
	}

	return result, nil
}

func (s *RedisStore) Get(ctx context.Context, signature string) (*models.Pattern, error) {
	value, err := s.client.HGet(ctx, patternsKey, signature).Result()
	if err == redis.Nil {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var pattern models.Pattern
	if err := json.Unmarshal([]byte(value), &pattern); err != nil {
		return nil, fmt.Errorf("failed to decode pattern %s: %w", signature, err)
	}

	return &pattern, nil
}

func (s *RedisStore) Frequent(ctx context.Context, minFrequency int) ([]*models.Pattern, error) {
	values, err := s.client.HGetAll(ctx, patternsKey).Result()
	if err != nil {
		return nil, err
	}

	result := make([]*models.Pattern, 0)

	for signature, value := range values {
		var pattern models.Pattern
		if err := json.Unmarshal([]byte(value), &pattern); err != nil {
			return nil, fmt.Errorf("failed to decode pattern %s: %w", signature, err)
		}

		if pattern.Frequency >= minFrequency {
			result = append(result, &pattern)
		}
	}

	return result, nil
}

func (s *RedisStore) Len(ctx context.Context) (int, error) {
	count, err := s.client.HLen(ctx, patternsKey).Result()

	return int(count), err
}
