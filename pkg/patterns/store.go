// Package patterns mines recurring step sequences across workflows and emits
// advisory optimization suggestions. Learning state lives in an injected
// PatternStore with an explicit lifecycle and a bounded size.
package patterns

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/replaykit/replaykit/pkg/models"
)

// DefaultMaxPatterns bounds the in-memory pattern table. Lowest-frequency
// entries are evicted first, oldest last-seen breaking ties.
const DefaultMaxPatterns = 1000

// Store is the pattern table. Implementations must be safe for concurrent
// use.
type Store interface {
	Upsert(ctx context.Context, signature string, length int, examples []models.Step) (*models.Pattern, error)
	Get(ctx context.Context, signature string) (*models.Pattern, error)
	Frequent(ctx context.Context, minFrequency int) ([]*models.Pattern, error)
	Len(ctx context.Context) (int, error)
}

// MemoryStore is the default bounded in-memory pattern table.
type MemoryStore struct {
	mu       sync.RWMutex
	patterns map[string]*models.Pattern
	max      int
}

func NewMemoryStore(maxPatterns int) *MemoryStore {
	if maxPatterns <= 0 {
		maxPatterns = DefaultMaxPatterns
	}

	return &MemoryStore{
		patterns: make(map[string]*models.Pattern),
		max:      maxPatterns,
	}
}

func (s *MemoryStore) Upsert(_ context.Context, signature string, length int, examples []models.Step) (*models.Pattern, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()

	if pattern, ok := s.patterns[signature]; ok {
		pattern.Frequency++
		pattern.LastSeen = now

		copied := *pattern

		return &copied, nil
	}

	if len(s.patterns) >= s.max {
		s.evictLocked()
	}

	pattern := &models.Pattern{
		Signature: signature,
		Length:    length,
		Examples:  examples,
		Frequency: 1,
		FirstSeen: now,
		LastSeen:  now,
	}
	s.patterns[signature] = pattern

	copied := *pattern

	return &copied, nil
}

func (s *MemoryStore) Get(_ context.Context, signature string) (*models.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern, ok := s.patterns[signature]
	if !ok {
		return nil, nil
	}

	copied := *pattern

	return &copied, nil
}

func (s *MemoryStore) Frequent(_ context.Context, minFrequency int) ([]*models.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Pattern, 0)

	for _, pattern := range s.patterns {
		if pattern.Frequency >= minFrequency {
			copied := *pattern
			result = append(result, &copied)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Frequency != result[j].Frequency {
			return result[i].Frequency > result[j].Frequency
		}

		return result[i].Signature < result[j].Signature
	})

	return result, nil
}

func (s *MemoryStore) Len(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.patterns), nil
}

func (s *MemoryStore) evictLocked() {
	var victim string

	for signature, pattern := range s.patterns {
		if victim == "" {
			victim = signature

			continue
		}

		current := s.patterns[victim]
		if pattern.Frequency < current.Frequency ||
			(pattern.Frequency == current.Frequency && pattern.LastSeen.Before(current.LastSeen)) {
			victim = signature
		}
	}

	if victim != "" {
		delete(s.patterns, victim)
	}
}
