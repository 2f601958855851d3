package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/sbilibin2017/influxts/internal/models"
)

// Storer persists samples.
type Storer interface {
	Store(ctx context.Context, samples []models.Sample) error
}

// Lister lists known metrics.
type Lister interface {
	ListMetrics(ctx context.Context, filter []models.Tag) ([]models.Metric, error)
}

// Fetcher retrieves samples of one metric.
type Fetcher interface {
	GetTimeseries(ctx context.Context, req models.TimeseriesRequest) ([]models.Sample, error)
}

// Deleter removes a metric.
type Deleter interface {
	Delete(ctx context.Context, metric *models.Metric) error
}

// NewSampleStoreBodyHandler persists a batch of samples.
//
// @Summary Store samples
// @Description Writes a JSON array of samples. Writes are independent per sample: on failure a prefix of the batch may already be persisted.
// @Tags timeseries
// @Accept json
// @Produce plain
// @Param samples body []models.Sample true "Samples to store"
// @Success 200 "OK"
// @Failure 400 "Bad Request"
// @Failure 500 "Internal Server Error"
// @Router /api/samples [post]
func NewSampleStoreBodyHandler(storer Storer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var samples []models.Sample
		if err := json.NewDecoder(r.Body).Decode(&samples); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if err := storer.Store(ctx, samples); err != nil {
			writeStorageError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// NewMetricListBodyHandler lists known metrics, optionally filtered by tags.
//
// @Summary List metrics
// @Description Returns every known metric whose tag sets contain all filter tags. An empty or absent body returns the full catalog.
// @Tags timeseries
// @Accept json
// @Produce json
// @Param filter body []models.Tag false "Filter tags"
// @Success 200 {array} models.Metric
// @Failure 400 "Bad Request"
// @Failure 500 "Internal Server Error"
// @Router /api/metrics/list [post]
func NewMetricListBodyHandler(lister Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var filter []models.Tag
		if err := json.NewDecoder(r.Body).Decode(&filter); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		metrics, err := lister.ListMetrics(ctx, filter)
		if err != nil {
			writeStorageError(w, err)
			return
		}
		if metrics == nil {
			metrics = []models.Metric{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(metrics); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

// NewTimeseriesQueryBodyHandler returns the samples of one metric over a
// time range.
//
// @Summary Query a time series
// @Description Returns the samples of the request's metric over [start, end). A positive step (nanoseconds) downsamples to one mean per window.
// @Tags timeseries
// @Accept json
// @Produce json
// @Param request body models.TimeseriesRequest true "Query request"
// @Success 200 {array} models.Sample
// @Failure 400 "Bad Request"
// @Failure 500 "Internal Server Error"
// @Router /api/timeseries [post]
func NewTimeseriesQueryBodyHandler(fetcher Fetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req models.TimeseriesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if req.Metric == nil || req.Metric.Key == "" {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		samples, err := fetcher.GetTimeseries(ctx, req)
		if err != nil {
			writeStorageError(w, err)
			return
		}
		if samples == nil {
			samples = []models.Sample{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(samples); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

// NewMetricDeleteBodyHandler removes every sample of one metric.
//
// @Summary Delete a metric
// @Description Deletes all samples of the metric named in the body.
// @Tags timeseries
// @Accept json
// @Produce plain
// @Param metric body models.Metric true "Metric to delete"
// @Success 200 "OK"
// @Failure 400 "Bad Request"
// @Failure 500 "Internal Server Error"
// @Router /api/metrics/delete [post]
func NewMetricDeleteBodyHandler(deleter Deleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var metric models.Metric
		if err := json.NewDecoder(r.Body).Decode(&metric); err != nil {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}
		if metric.Key == "" {
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		if err := deleter.Delete(ctx, &metric); err != nil {
			writeStorageError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

// writeStorageError maps a storage failure to 500 and anything else
// (validation of the decoded input) to 400.
func writeStorageError(w http.ResponseWriter, err error) {
	var storageErr *models.StorageError
	if errors.As(err, &storageErr) {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Error(w, "Bad request", http.StatusBadRequest)
}
