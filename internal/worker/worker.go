package worker

import (
	"context"
	"log"
	"time"

	"github.com/sbilibin2017/influxts/internal/models"
)

// Lister defines an interface for listing the metric catalog.
type Lister interface {
	// ListMetrics returns every known metric matching the filter.
	ListMetrics(ctx context.Context, filter []models.Tag) ([]models.Metric, error)
}

// CatalogWarmer periodically lists the metric catalog so that the
// first real request after a cache expiry does not pay the scan cost.
type CatalogWarmer struct {
	warmTicker *time.Ticker // ticker for periodic warming, or nil for warming once on start
	lister     Lister       // interface to list the metric catalog
}

// NewCatalogWarmer creates a new CatalogWarmer with the given configuration.
// The warmTicker controls how often the catalog is refreshed. If nil, the
// catalog is warmed once on start and the worker then waits for shutdown.
func NewCatalogWarmer(warmTicker *time.Ticker, lister Lister) *CatalogWarmer {
	return &CatalogWarmer{
		warmTicker: warmTicker,
		lister:     lister,
	}
}

// Start runs the warmer until the given context is done. Listing failures
// are logged and retried on the next tick rather than stopping the worker.
func (cw *CatalogWarmer) Start(ctx context.Context) error {
	warmCatalog(ctx, cw.lister)

	if cw.warmTicker == nil {
		<-ctx.Done()
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-cw.warmTicker.C:
			warmCatalog(ctx, cw.lister)
		}
	}
}

// warmCatalog lists the whole catalog, populating the underlying cache.
func warmCatalog(ctx context.Context, lister Lister) {
	metrics, err := lister.ListMetrics(ctx, nil)
	if err != nil {
		log.Printf("catalog warm failed: %v", err)
		return
	}
	log.Printf("catalog warmed, %d metrics", len(metrics))
}
