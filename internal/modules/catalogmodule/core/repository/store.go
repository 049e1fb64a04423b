// Package repository provides the record stores the query engine reads from.
package repository

import (
	"context"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/core/predicate"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
)

// Store is the narrow read interface consumed by the query engine.
//
// Scan returns a point-in-time view of the records in the store's natural
// order. hints are optional pushdown conditions: an implementation may use
// them to pre-filter or ignore them entirely, but must never drop a record
// that satisfies every hint. The engine re-applies its own predicates.
type Store interface {
	Scan(ctx context.Context, hints ...predicate.Condition) ([]models.Movie, error)
	// Get looks a movie up by id. ok is false when it does not exist.
	Get(ctx context.Context, id string) (movie models.Movie, ok bool, err error)
	// Count counts records matching p; a nil p counts everything.
	Count(ctx context.Context, p predicate.Predicate) (int64, error)
	Exists(ctx context.Context, p predicate.Predicate) (bool, error)
}

// Ingester bulk-loads records. Only seeding uses it; the engine never writes.
type Ingester interface {
	Ingest(ctx context.Context, movies []models.Movie) error
}

// countByScan is the fallback used when a predicate cannot be pushed down.
func countByScan(ctx context.Context, s Store, p predicate.Predicate, stopAfter int64) (int64, error) {
	var hints []predicate.Condition
	if p != nil {
		hints, _ = predicate.Conditions(p)
	}
	movies, err := s.Scan(ctx, hints...)
	if err != nil {
		return 0, err
	}
	var n int64
	for i := range movies {
		if p == nil || p.Match(&movies[i]) {
			n++
			if stopAfter > 0 && n >= stopAfter {
				break
			}
		}
	}
	return n, nil
}
