package cmd

import (
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/replaykit/replaykit/pkg/patterns"
)

// NewPatternStore builds the pattern table: redis-backed when a URL is
// given, otherwise in-memory with the default bound.
func NewPatternStore(redisURL string) patterns.Store {
	if redisURL == "" {
		return patterns.NewMemoryStore(patterns.DefaultMaxPatterns)
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("failed to parse pattern store redis url: %w", err))
	}

	return patterns.NewRedisStore(redis.NewClient(opts))
}
