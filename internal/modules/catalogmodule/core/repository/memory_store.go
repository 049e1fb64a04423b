package repository

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
)

// MemoryStore is an in-process Store. It ignores pushdown hints.
type MemoryStore struct {
	mu     sync.RWMutex
	movies []models.Movie
	byID   map[string]int
	scans  atomic.Int64
}

// NewMemoryStore creates a store holding copies of movies.
// Movies without an id are assigned one.
func NewMemoryStore(movies ...models.Movie) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]int)}
	s.add(movies)
	return s
}

func (s *MemoryStore) add(movies []models.Movie) {
	for _, m := range movies {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if pos, exists := s.byID[m.ID]; exists {
			s.movies[pos] = m
			continue
		}
		s.byID[m.ID] = len(s.movies)
		s.movies = append(s.movies, m)
	}
}

// Ingest implements Ingester. Existing ids are replaced in place.
func (s *MemoryStore) Ingest(ctx context.Context, movies []models.Movie) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.add(movies)
	return nil
}

// Scan returns a copy of every record in insertion order.
func (s *MemoryStore) Scan(ctx context.Context, hints ...predicate.Condition) ([]models.Movie, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.scans.Add(1)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Movie, len(s.movies))
	copy(out, s.movies)
	return out, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (models.Movie, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.Movie{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.byID[id]
	if !ok {
		return models.Movie{}, false, nil
	}
	return s.movies[pos], true, nil
}

// Count implements Store.
func (s *MemoryStore) Count(ctx context.Context, p predicate.Predicate) (int64, error) {
	return countByScan(ctx, s, p, 0)
}

// Exists implements Store.
func (s *MemoryStore) Exists(ctx context.Context, p predicate.Predicate) (bool, error) {
	n, err := countByScan(ctx, s, p, 1)
	return n > 0, err
}

// Scans reports how many times Scan has been called.
func (s *MemoryStore) Scans() int64 {
	return s.scans.Load()
}
