// Package influx persists and retrieves time-series data against InfluxDB 2.x.
//
// Design choices, mirrored in the on-disk layout:
//   - the _measurement column holds the encoded metric key
//   - tag keys are prefixed with their classification ('intrinsic' or 'meta')
//   - every sample is a single numeric field named "value"
package influx

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sbilibin2017/influxts/internal/catalog"
	"github.com/sbilibin2017/influxts/internal/codec"
	"github.com/sbilibin2017/influxts/internal/flux"
	"github.com/sbilibin2017/influxts/internal/models"
)

// WriteAPI is the subset of the blocking write client the repository uses.
type WriteAPI interface {
	// WritePoint writes points synchronously.
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// QueryAPI is the subset of the query client the repository uses.
type QueryAPI interface {
	// Query executes a Flux query and returns a table result iterator.
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// DeleteAPI is the subset of the delete client the repository uses.
type DeleteAPI interface {
	// DeleteWithName deletes points matching predicate within [start, stop].
	DeleteWithName(ctx context.Context, orgName, bucketName string, start, stop time.Time, predicate string) error
}

// MetricRepository is the storage adapter over InfluxDB. It composes the
// codec, the Flux query builder and the metric catalog, and is safe for
// concurrent use: the only shared mutable state is the catalog cache, which
// synchronizes itself.
type MetricRepository struct {
	write   WriteAPI
	query   QueryAPI
	delete  DeleteAPI
	bucket  string
	org     string
	marker  string
	catOpts []catalog.Opt
	catalog *catalog.Catalog
}

// Opt applies a configuration option to a MetricRepository.
type Opt func(*MetricRepository)

// WithKeyMarker restricts the catalog to measurements whose key contains
// marker. Useful when the bucket is shared with foreign writers; by default
// any measurement carrying a classified tag key is considered adapter-owned.
func WithKeyMarker(marker string) Opt {
	return func(r *MetricRepository) {
		r.marker = marker
	}
}

// WithCatalogTTL sets how long a loaded catalog stays valid.
func WithCatalogTTL(ttl time.Duration) Opt {
	return func(r *MetricRepository) {
		r.catOpts = append(r.catOpts, catalog.WithTTL(ttl))
	}
}

// NewMetricRepository creates a storage adapter writing to the given bucket
// and org through the provided client APIs.
func NewMetricRepository(
	writeAPI WriteAPI,
	queryAPI QueryAPI,
	deleteAPI DeleteAPI,
	bucket string,
	org string,
	opts ...Opt,
) *MetricRepository {
	r := &MetricRepository{
		write:  writeAPI,
		query:  queryAPI,
		delete: deleteAPI,
		bucket: bucket,
		org:    org,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.catalog = catalog.New(catalog.LoaderFunc(r.loadMetrics), r.catOpts...)
	return r
}

// Store writes each sample as an independent point. There is no batch
// atomicity across the slice: when an error is returned, a prefix of the
// samples may already be written.
func (r *MetricRepository) Store(ctx context.Context, samples []models.Sample) error {
	for _, sample := range samples {
		if sample.Metric == nil {
			return &models.StorageError{Op: "store", Err: errors.New("sample without metric")}
		}
		point := write.NewPoint(
			codec.EncodeMetricKey(sample.Metric.Key),
			pointTags(sample.Metric),
			map[string]interface{}{"value": sample.Value},
			sample.Time,
		)
		if err := r.write.WritePoint(ctx, point); err != nil {
			return &models.StorageError{Op: "store", Err: err}
		}
	}
	return nil
}

// pointTags flattens both tag sets of a metric into classified, encoded
// Influx tags.
func pointTags(metric *models.Metric) map[string]string {
	tags := make(map[string]string, len(metric.Tags)+len(metric.MetaTags))
	for _, tag := range metric.Tags {
		tags[codec.ClassifyTagKey(models.TagTypeIntrinsic, tag.Key)] = codec.EncodeTagValue(tag.Value)
	}
	for _, tag := range metric.MetaTags {
		tags[codec.ClassifyTagKey(models.TagTypeMeta, tag.Key)] = codec.EncodeTagValue(tag.Value)
	}
	return tags
}

// ListMetrics returns the known metrics whose tag sets contain every filter
// tag. The listing is served from the catalog cache; an expired cache
// triggers a single shared backend scan.
func (r *MetricRepository) ListMetrics(ctx context.Context, filter []models.Tag) ([]models.Metric, error) {
	metrics, err := r.catalog.List(ctx, filter)
	if err != nil {
		return nil, &models.StorageError{Op: "list metrics", Err: err}
	}
	return metrics, nil
}

// loadMetrics scans the bucket's tag index and reconstructs every
// adapter-owned metric. Duplicate reconstructions (same key and tag sets)
// are collapsed.
func (r *MetricRepository) loadMetrics(ctx context.Context) ([]models.Metric, error) {
	result, err := r.query.Query(ctx, flux.ScanQuery(r.bucket))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var metrics []models.Metric
	for result.Next() {
		metric, ok := metricFromRecord(result.Record().Values(), r.marker)
		if !ok {
			continue
		}
		fingerprint := metric.Fingerprint()
		if _, dup := seen[fingerprint]; dup {
			continue
		}
		seen[fingerprint] = struct{}{}
		metrics = append(metrics, metric)
	}
	if err := result.Err(); err != nil {
		return nil, err
	}

	log.Printf("[MetricRepository] catalog scan loaded %d metrics", len(metrics))
	return metrics, nil
}

// metricFromRecord rebuilds a metric from the column map of one scan record.
// ok is false for records that do not belong to this adapter. Columns whose
// key carries no classification prefix are Influx-internal and skipped; a
// value that fails decode validation is kept verbatim so one bad tag cannot
// drop the metric.
func metricFromRecord(values map[string]interface{}, marker string) (models.Metric, bool) {
	name, ok := values["_measurement"].(string)
	if !ok || name == "" {
		return models.Metric{}, false
	}
	if marker != "" && !strings.Contains(name, marker) {
		return models.Metric{}, false
	}

	metric := models.Metric{Key: name}
	for key, value := range values {
		tagType, rawKey, ok := codec.UnclassifyTagKey(key)
		if !ok {
			continue
		}
		tag := models.Tag{Key: rawKey, Value: codec.DecodeTagValue(fmt.Sprint(value))}
		switch tagType {
		case models.TagTypeIntrinsic:
			metric.Tags = append(metric.Tags, tag)
		case models.TagTypeMeta:
			metric.MetaTags = append(metric.MetaTags, tag)
		}
	}

	if marker == "" && len(metric.Tags)+len(metric.MetaTags) == 0 {
		// no classified tags at all: a foreign measurement sharing the bucket
		return models.Metric{}, false
	}

	sortTags(metric.Tags)
	sortTags(metric.MetaTags)
	return metric, true
}

func sortTags(tags []models.Tag) {
	sort.Slice(tags, func(i, j int) bool { return tags[i].Key < tags[j].Key })
}

// GetTimeseries returns the samples of one metric over [req.Start, req.End).
// Every returned sample is bound to the request's own Metric: the range query
// is scoped to exactly one measurement, so the caller-supplied identity is
// trusted rather than re-derived from row tags.
func (r *MetricRepository) GetTimeseries(ctx context.Context, req models.TimeseriesRequest) ([]models.Sample, error) {
	if req.Metric == nil {
		return nil, &models.StorageError{Op: "get timeseries", Err: errors.New("request without metric")}
	}

	query := flux.RangeQuery(r.bucket, codec.EncodeMetricKey(req.Metric.Key), req.Start, req.End)
	result, err := r.query.Query(ctx, query)
	if err != nil {
		return nil, &models.StorageError{Op: "get timeseries", Err: err}
	}

	var samples []models.Sample
	for result.Next() {
		record := result.Record()
		value, ok := numericValue(record.Value())
		if !ok {
			continue
		}
		samples = append(samples, models.Sample{
			Metric: req.Metric,
			Time:   record.Time(),
			Value:  value,
		})
	}
	if err := result.Err(); err != nil {
		return nil, &models.StorageError{Op: "get timeseries", Err: err}
	}
	return samples, nil
}

func numericValue(v interface{}) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case int64:
		return float64(value), true
	}
	return 0, false
}

// Delete removes every point of the metric's measurement. Only call success
// or failure is interpreted; Influx reports no per-point outcome.
func (r *MetricRepository) Delete(ctx context.Context, metric *models.Metric) error {
	if metric == nil {
		return &models.StorageError{Op: "delete", Err: errors.New("metric is required")}
	}

	predicate := flux.DeletePredicate(codec.EncodeMetricKey(metric.Key))
	err := r.delete.DeleteWithName(ctx, r.org, r.bucket, time.Unix(0, 0).UTC(), time.Now().UTC(), predicate)
	if err != nil {
		return &models.StorageError{Op: "delete", Err: err}
	}
	return nil
}
