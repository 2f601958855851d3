package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sbilibin2017/influxts/internal/models"
)

// Writer defines the interface for persisting samples.
type Writer interface {
	// Store persists the given samples.
	Store(ctx context.Context, samples []models.Sample) error
}

// Lister defines the interface for listing known metrics.
type Lister interface {
	// ListMetrics returns the metrics matching every filter tag.
	ListMetrics(ctx context.Context, filter []models.Tag) ([]models.Metric, error)
}

// Fetcher defines the interface for retrieving samples.
type Fetcher interface {
	// GetTimeseries returns the samples of one metric over a time range.
	GetTimeseries(ctx context.Context, req models.TimeseriesRequest) ([]models.Sample, error)
}

// Deleter defines the interface for removing metrics.
type Deleter interface {
	// Delete removes every sample of the given metric.
	Delete(ctx context.Context, metric *models.Metric) error
}

// TimeseriesService validates inputs before they reach storage and applies
// the step downsampling the backend does not perform itself.
type TimeseriesService struct {
	writer  Writer
	lister  Lister
	fetcher Fetcher
	deleter Deleter
}

// NewTimeseriesService creates a new TimeseriesService over the given
// storage interfaces.
func NewTimeseriesService(
	writer Writer,
	lister Lister,
	fetcher Fetcher,
	deleter Deleter,
) *TimeseriesService {
	return &TimeseriesService{
		writer:  writer,
		lister:  lister,
		fetcher: fetcher,
		deleter: deleter,
	}
}

// Store validates the whole batch first, then hands it to storage. Once
// writing has started there is no rollback: on storage failure a prefix of
// the batch may be persisted.
func (svc *TimeseriesService) Store(ctx context.Context, samples []models.Sample) error {
	for i := range samples {
		if err := validateSample(&samples[i]); err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
	}
	return svc.writer.Store(ctx, samples)
}

func validateSample(sample *models.Sample) error {
	if sample.Metric == nil {
		return fmt.Errorf("metric is required")
	}
	if sample.Metric.Key == "" {
		return fmt.Errorf("metric key is required")
	}
	if err := validateTagSet(sample.Metric.Tags); err != nil {
		return fmt.Errorf("intrinsic tags: %w", err)
	}
	if err := validateTagSet(sample.Metric.MetaTags); err != nil {
		return fmt.Errorf("meta tags: %w", err)
	}
	return nil
}

func validateTagSet(tags []models.Tag) error {
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		if tag.Key == "" {
			return fmt.Errorf("tag key must not be empty")
		}
		if _, dup := seen[tag.Key]; dup {
			return fmt.Errorf("duplicate tag key %q", tag.Key)
		}
		seen[tag.Key] = struct{}{}
	}
	return nil
}

// ListMetrics returns the known metrics matching every filter tag.
func (svc *TimeseriesService) ListMetrics(ctx context.Context, filter []models.Tag) ([]models.Metric, error) {
	return svc.lister.ListMetrics(ctx, filter)
}

// GetTimeseries fetches the samples of req's metric over [Start, End).
// A positive Step downsamples the result to one mean value per window of
// [Start+k*Step, Start+(k+1)*Step); Step <= 0 returns raw samples.
func (svc *TimeseriesService) GetTimeseries(ctx context.Context, req models.TimeseriesRequest) ([]models.Sample, error) {
	if req.Metric == nil {
		return nil, fmt.Errorf("metric is required")
	}
	if !req.End.After(req.Start) {
		return nil, fmt.Errorf("end must be after start")
	}

	samples, err := svc.fetcher.GetTimeseries(ctx, req)
	if err != nil {
		return nil, err
	}
	if req.Step <= 0 {
		return samples, nil
	}
	return downsample(samples, req.Start, req.Step), nil
}

// downsample averages samples per step window. Each output sample carries
// the window's start as its timestamp and the metric of the inputs.
func downsample(samples []models.Sample, start time.Time, step time.Duration) []models.Sample {
	if len(samples) == 0 {
		return samples
	}

	type window struct {
		sum   float64
		count int
	}
	windows := make(map[int64]*window)
	for _, sample := range samples {
		if sample.Time.Before(start) {
			continue
		}
		idx := int64(sample.Time.Sub(start) / step)
		w, ok := windows[idx]
		if !ok {
			w = &window{}
			windows[idx] = w
		}
		w.sum += sample.Value
		w.count++
	}

	indexes := make([]int64, 0, len(windows))
	for idx := range windows {
		indexes = append(indexes, idx)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	out := make([]models.Sample, 0, len(indexes))
	for _, idx := range indexes {
		w := windows[idx]
		out = append(out, models.Sample{
			Metric: samples[0].Metric,
			Time:   start.Add(time.Duration(idx) * step),
			Value:  w.sum / float64(w.count),
		})
	}
	return out
}

// Delete removes every sample of the given metric.
func (svc *TimeseriesService) Delete(ctx context.Context, metric *models.Metric) error {
	if metric == nil {
		return fmt.Errorf("metric is required")
	}
	return svc.deleter.Delete(ctx, metric)
}
