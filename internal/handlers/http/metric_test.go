package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/influxts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storageErr(op string) error {
	return &models.StorageError{Op: op, Err: errors.New("backend down")}
}

func TestNewSampleStoreBodyHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockStorer := NewMockStorer(ctrl)
	handler := NewSampleStoreBodyHandler(mockStorer)

	t.Run("stores decoded samples", func(t *testing.T) {
		var got []models.Sample
		mockStorer.EXPECT().
			Store(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, samples []models.Sample) error {
				got = samples
				return nil
			})

		body := `[{"metric":{"key":"node1.cpu","tags":[{"key":"resourceId","value":"r1"}]},"time":"2022-03-01T10:00:00Z","value":42}]`
		req := httptest.NewRequest(http.MethodPost, "/api/samples", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, got, 1)
		assert.Equal(t, "node1.cpu", got[0].Metric.Key)
		assert.Equal(t, 42.0, got[0].Value)
		assert.True(t, got[0].Time.Equal(time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/samples", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockStorer.EXPECT().Store(gomock.Any(), gomock.Any()).Return(storageErr("store"))

		req := httptest.NewRequest(http.MethodPost, "/api/samples", strings.NewReader("[]"))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("validation failure maps to bad request", func(t *testing.T) {
		mockStorer.EXPECT().Store(gomock.Any(), gomock.Any()).Return(errors.New("sample 0: metric is required"))

		req := httptest.NewRequest(http.MethodPost, "/api/samples", strings.NewReader(`[{"value":1}]`))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestNewMetricListBodyHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLister := NewMockLister(ctrl)
	handler := NewMetricListBodyHandler(mockLister)

	t.Run("lists with filter", func(t *testing.T) {
		want := []models.Metric{{Key: "node1.cpu", Tags: []models.Tag{{Key: "resourceId", Value: "r1"}}}}
		mockLister.EXPECT().
			ListMetrics(gomock.Any(), []models.Tag{{Key: "resourceId", Value: "r1"}}).
			Return(want, nil)

		body := `[{"key":"resourceId","value":"r1"}]`
		req := httptest.NewRequest(http.MethodPost, "/api/metrics/list", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var got []models.Metric
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, want, got)
	})

	t.Run("empty body lists everything", func(t *testing.T) {
		mockLister.EXPECT().ListMetrics(gomock.Any(), gomock.Nil()).Return(nil, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/metrics/list", strings.NewReader(""))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("catalog failure", func(t *testing.T) {
		mockLister.EXPECT().ListMetrics(gomock.Any(), gomock.Any()).Return(nil, storageErr("list metrics"))

		req := httptest.NewRequest(http.MethodPost, "/api/metrics/list", strings.NewReader("[]"))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestNewTimeseriesQueryBodyHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFetcher := NewMockFetcher(ctrl)
	handler := NewTimeseriesQueryBodyHandler(mockFetcher)

	t.Run("returns samples", func(t *testing.T) {
		metric := &models.Metric{Key: "node1.cpu"}
		at := time.Date(2022, 3, 1, 10, 15, 0, 0, time.UTC)
		mockFetcher.EXPECT().
			GetTimeseries(gomock.Any(), gomock.Any()).
			Return([]models.Sample{{Metric: metric, Time: at, Value: 42}}, nil)

		body := `{"metric":{"key":"node1.cpu"},"start":"2022-03-01T10:00:00Z","end":"2022-03-01T11:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/timeseries", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var got []models.Sample
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, 42.0, got[0].Value)
		assert.True(t, got[0].Time.Equal(at))
	})

	t.Run("missing metric", func(t *testing.T) {
		body := `{"start":"2022-03-01T10:00:00Z","end":"2022-03-01T11:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/timeseries", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("query failure", func(t *testing.T) {
		mockFetcher.EXPECT().GetTimeseries(gomock.Any(), gomock.Any()).Return(nil, storageErr("get timeseries"))

		body := `{"metric":{"key":"node1.cpu"},"start":"2022-03-01T10:00:00Z","end":"2022-03-01T11:00:00Z"}`
		req := httptest.NewRequest(http.MethodPost, "/api/timeseries", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestNewMetricDeleteBodyHandler(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDeleter := NewMockDeleter(ctrl)
	handler := NewMetricDeleteBodyHandler(mockDeleter)

	t.Run("deletes decoded metric", func(t *testing.T) {
		var got *models.Metric
		mockDeleter.EXPECT().
			Delete(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, metric *models.Metric) error {
				got = metric
				return nil
			})

		body := `{"key":"node1.cpu"}`
		req := httptest.NewRequest(http.MethodPost, "/api/metrics/delete", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, got)
		assert.Equal(t, "node1.cpu", got.Key)
	})

	t.Run("missing key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/metrics/delete", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("backend failure", func(t *testing.T) {
		mockDeleter.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(storageErr("delete"))

		req := httptest.NewRequest(http.MethodPost, "/api/metrics/delete", strings.NewReader(`{"key":"node1.cpu"}`))
		rec := httptest.NewRecorder()

		handler(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
