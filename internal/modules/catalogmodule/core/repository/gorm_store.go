package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"gorm.io/gorm"
)

// DefaultBatchSize is the insert batch size used by Ingest.
const DefaultBatchSize = 200

// GormStore reads movies from a SQL database through gorm.
// Pushable hints become WHERE clauses; everything else is left to the engine.
type GormStore struct {
	db        *gorm.DB
	batchSize int
}

// NewGormStore creates a new gorm-backed store
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		db:        db,
		batchSize: DefaultBatchSize,
	}
}

// WithBatchSize sets the insert batch size used by Ingest. Non-positive
// sizes keep the current one.
func (s *GormStore) WithBatchSize(n int) *GormStore {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Migrate creates or updates the movies table.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Movie{}); err != nil {
		return fmt.Errorf("failed to migrate movies table: %w", err)
	}
	return nil
}

func (s *GormStore) base(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&models.Movie{})
}

// where applies every pushable condition and reports whether all of them
// were pushed.
func where(q *gorm.DB, conds []predicate.Condition) (*gorm.DB, bool) {
	all := true
	for _, c := range conds {
		clause, args, ok := c.SQL()
		if !ok {
			all = false
			continue
		}
		q = q.Where(clause, args...)
	}
	return q, all
}

// Scan implements Store.
func (s *GormStore) Scan(ctx context.Context, hints ...predicate.Condition) ([]models.Movie, error) {
	q, _ := where(s.base(ctx), hints)

	// created_at then id is the store's natural order.
	var movies []models.Movie
	if err := q.Order("created_at, id").Find(&movies).Error; err != nil {
		return nil, fmt.Errorf("failed to scan movies: %w", err)
	}
	return movies, nil
}

// Get implements Store.
func (s *GormStore) Get(ctx context.Context, id string) (models.Movie, bool, error) {
	var movie models.Movie
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Movie{}, false, nil
		}
		return models.Movie{}, false, fmt.Errorf("failed to get movie: %w", err)
	}
	return movie, true, nil
}

// Count implements Store. Fully pushable predicates are counted in SQL.
func (s *GormStore) Count(ctx context.Context, p predicate.Predicate) (int64, error) {
	q, pushed := s.pushdown(ctx, p)
	if !pushed {
		return countByScan(ctx, s, p, 0)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count movies: %w", err)
	}
	return n, nil
}

// Exists implements Store.
func (s *GormStore) Exists(ctx context.Context, p predicate.Predicate) (bool, error) {
	q, pushed := s.pushdown(ctx, p)
	if !pushed {
		n, err := countByScan(ctx, s, p, 1)
		return n > 0, err
	}
	var ids []string
	if err := q.Limit(1).Pluck("id", &ids).Error; err != nil {
		return false, fmt.Errorf("failed to check movies: %w", err)
	}
	return len(ids) > 0, nil
}

func (s *GormStore) pushdown(ctx context.Context, p predicate.Predicate) (*gorm.DB, bool) {
	if p == nil {
		return s.base(ctx), true
	}
	leaves, ok := predicate.Conditions(p)
	if !ok {
		return nil, false
	}
	q, all := where(s.base(ctx), leaves)
	if !all {
		return nil, false
	}
	return q, true
}

// Ingest implements Ingester.
func (s *GormStore) Ingest(ctx context.Context, movies []models.Movie) error {
	if len(movies) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&movies, s.batchSize).Error; err != nil {
		return fmt.Errorf("failed to ingest movies: %w", err)
	}
	return nil
}
