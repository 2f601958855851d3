// Package memory provides an in-memory storage adapter with the same
// contract as the InfluxDB repository. It backs the server's dev mode and
// keeps tests free of a running backend.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/sbilibin2017/influxts/internal/models"
)

// MetricRepository stores samples and the metric catalog in process memory.
type MetricRepository struct {
	mu      sync.RWMutex
	samples map[string][]models.Sample // samples per metric key
	metrics map[string]models.Metric   // catalog entries per fingerprint
}

// NewMetricRepository creates an empty in-memory repository.
func NewMetricRepository() *MetricRepository {
	return &MetricRepository{
		samples: make(map[string][]models.Sample),
		metrics: make(map[string]models.Metric),
	}
}

// Store appends each sample and registers its metric in the catalog.
func (r *MetricRepository) Store(ctx context.Context, samples []models.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sample := range samples {
		if sample.Metric == nil {
			return &models.StorageError{Op: "store", Err: errors.New("sample without metric")}
		}
		r.samples[sample.Metric.Key] = append(r.samples[sample.Metric.Key], sample)
		r.metrics[sample.Metric.Fingerprint()] = *sample.Metric
	}
	return nil
}

// ListMetrics returns the known metrics whose tag sets contain every filter
// tag, sorted by key for stable output.
func (r *MetricRepository) ListMetrics(ctx context.Context, filter []models.Tag) ([]models.Metric, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metrics := make([]models.Metric, 0, len(r.metrics))
	for _, metric := range r.metrics {
		if hasAllTags(&metric, filter) {
			metrics = append(metrics, metric)
		}
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i].Key < metrics[j].Key })
	return metrics, nil
}

func hasAllTags(metric *models.Metric, filter []models.Tag) bool {
	for _, tag := range filter {
		if !metric.HasTag(tag) {
			return false
		}
	}
	return true
}

// GetTimeseries returns the samples of the requested metric's key within
// [req.Start, req.End), in time order. Like the InfluxDB adapter it scopes
// by metric key only and binds results to the caller's metric identity.
func (r *MetricRepository) GetTimeseries(ctx context.Context, req models.TimeseriesRequest) ([]models.Sample, error) {
	if req.Metric == nil {
		return nil, &models.StorageError{Op: "get timeseries", Err: errors.New("request without metric")}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var samples []models.Sample
	for _, sample := range r.samples[req.Metric.Key] {
		if sample.Time.Before(req.Start) || !sample.Time.Before(req.End) {
			continue
		}
		samples = append(samples, models.Sample{
			Metric: req.Metric,
			Time:   sample.Time,
			Value:  sample.Value,
		})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Time.Before(samples[j].Time) })
	return samples, nil
}

// Delete removes every sample and catalog entry of the metric's key.
func (r *MetricRepository) Delete(ctx context.Context, metric *models.Metric) error {
	if metric == nil {
		return &models.StorageError{Op: "delete", Err: errors.New("metric is required")}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.samples, metric.Key)
	for fingerprint, m := range r.metrics {
		if m.Key == metric.Key {
			delete(r.metrics, fingerprint)
		}
	}
	return nil
}
