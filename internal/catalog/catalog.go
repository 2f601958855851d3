// Package catalog maintains an eventually consistent, locally cached view of
// every metric known to the backend. Reloads are single-flight: however many
// callers observe an expired cache at once, at most one backend scan runs and
// all of them share its outcome.
package catalog

import (
	"context"
	"time"

	"github.com/sbilibin2017/influxts/internal/models"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a loaded catalog stays valid, measured from
// successful load completion.
const DefaultTTL = 60 * time.Second

// catalogKey is the identity of the single logical cache entry.
const catalogKey = "allMetrics"

// cacheCapacity bounds the entry count of the underlying cache.
const cacheCapacity = 16

// Loader performs the expensive full-catalog scan against the backend.
type Loader interface {
	// LoadMetrics returns every metric currently known to the backend.
	LoadMetrics(ctx context.Context) ([]models.Metric, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context) ([]models.Metric, error)

// LoadMetrics calls f.
func (f LoaderFunc) LoadMetrics(ctx context.Context) ([]models.Metric, error) {
	return f(ctx)
}

// Catalog caches the decoded metric list with expiry and single-flight
// reload semantics. Safe for concurrent use.
type Catalog struct {
	loader Loader
	ttl    time.Duration
	now    func() time.Time
	group  singleflight.Group
	cache  *metricCache
}

// Opt applies a configuration option to a Catalog.
type Opt func(*Catalog)

// WithTTL sets the cache time-to-live.
func WithTTL(ttl time.Duration) Opt {
	return func(c *Catalog) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock injects the time source, letting tests control expiry without
// real timers.
func WithClock(now func() time.Time) Opt {
	return func(c *Catalog) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Catalog over the given loader.
func New(loader Loader, opts ...Opt) *Catalog {
	c := &Catalog{
		loader: loader,
		ttl:    DefaultTTL,
		now:    time.Now,
		cache:  newMetricCache(cacheCapacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns the cached metrics whose combined intrinsic and meta tag set
// is a superset of filter. Every requested tag must match by exact key and
// value in either set. An empty filter returns the full catalog.
func (c *Catalog) List(ctx context.Context, filter []models.Tag) ([]models.Metric, error) {
	metrics, err := c.all(ctx)
	if err != nil {
		return nil, err
	}
	if len(filter) == 0 {
		return metrics, nil
	}

	matched := make([]models.Metric, 0, len(metrics))
	for i := range metrics {
		if hasAllTags(&metrics[i], filter) {
			matched = append(matched, metrics[i])
		}
	}
	return matched, nil
}

// all returns the cached metric list, reloading it when absent or expired.
// A failed reload is surfaced to every waiter; the previous entry is not
// consulted as a fallback.
func (c *Catalog) all(ctx context.Context) ([]models.Metric, error) {
	if metrics, ok := c.cache.get(catalogKey, c.now()); ok {
		return metrics, nil
	}

	v, err, _ := c.group.Do(catalogKey, func() (interface{}, error) {
		// A concurrent flight may have refreshed the entry already.
		if metrics, ok := c.cache.get(catalogKey, c.now()); ok {
			return metrics, nil
		}
		metrics, err := c.loader.LoadMetrics(ctx)
		if err != nil {
			return nil, err
		}
		c.cache.set(catalogKey, metrics, c.now().Add(c.ttl))
		return metrics, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Metric), nil
}

func hasAllTags(metric *models.Metric, filter []models.Tag) bool {
	for _, tag := range filter {
		if !metric.HasTag(tag) {
			return false
		}
	}
	return true
}
