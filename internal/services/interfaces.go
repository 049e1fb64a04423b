// Package services holds the interfaces modules expose to each other and to
// the command line, plus the registry they are published in.
package services

import (
	"context"

	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/models"
	"github.com/mantonx/moviecatalog/internal/modules/catalogmodule/service"
)

// CatalogServiceName is the registry key of the catalog service.
const CatalogServiceName = "catalog"

// CatalogService is the query surface of the catalog module.
type CatalogService interface {
	// FindByID returns ok == false when no movie has the id.
	FindByID(ctx context.Context, id string) (models.Movie, bool, error)

	// Named runs a named composite query such as "highly-rated".
	Named(ctx context.Context, name string) ([]models.Movie, error)

	// Top ranks movies by a metric such as "roi" and keeps n.
	Top(ctx context.Context, metric string, n int) ([]models.Movie, error)

	// Dynamic evaluates an untyped filter-map and option-map.
	Dynamic(ctx context.Context, filters, options map[string]any) (service.DynamicResult, error)

	Count(ctx context.Context, filters map[string]any) (int, error)

	Statistics(ctx context.Context) (service.Statistics, error)
}

var _ CatalogService = (*service.CatalogService)(nil)
