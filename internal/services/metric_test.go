package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/influxts/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSample(key string, value float64) models.Sample {
	return models.Sample{
		Metric: &models.Metric{
			Key:  key,
			Tags: []models.Tag{{Key: "resourceId", Value: "r1"}},
		},
		Time:  time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC),
		Value: value,
	}
}

func TestTimeseriesService_Store(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWriter := NewMockWriter(ctrl)
	svc := NewTimeseriesService(mockWriter, nil, nil, nil)
	ctx := context.Background()

	t.Run("valid batch is forwarded", func(t *testing.T) {
		samples := []models.Sample{validSample("node1.cpu", 1), validSample("node2.cpu", 2)}
		mockWriter.EXPECT().Store(ctx, samples).Return(nil)

		assert.NoError(t, svc.Store(ctx, samples))
	})

	t.Run("writer error propagates", func(t *testing.T) {
		samples := []models.Sample{validSample("node1.cpu", 1)}
		mockWriter.EXPECT().Store(ctx, samples).Return(errors.New("write failed"))

		assert.EqualError(t, svc.Store(ctx, samples), "write failed")
	})
}

func TestTimeseriesService_Store_Validation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no Store expectation: invalid batches must never reach the writer
	svc := NewTimeseriesService(NewMockWriter(ctrl), nil, nil, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		sample  models.Sample
		wantErr string
	}{
		{
			name:    "nil metric",
			sample:  models.Sample{Value: 1},
			wantErr: "metric is required",
		},
		{
			name:    "empty key",
			sample:  models.Sample{Metric: &models.Metric{}},
			wantErr: "metric key is required",
		},
		{
			name: "empty tag key",
			sample: models.Sample{Metric: &models.Metric{
				Key:  "m",
				Tags: []models.Tag{{Key: "", Value: "v"}},
			}},
			wantErr: "tag key must not be empty",
		},
		{
			name: "duplicate tag key within a set",
			sample: models.Sample{Metric: &models.Metric{
				Key:      "m",
				MetaTags: []models.Tag{{Key: "unit", Value: "a"}, {Key: "unit", Value: "b"}},
			}},
			wantErr: `duplicate tag key "unit"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Store(ctx, []models.Sample{tt.sample})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTimeseriesService_Store_SameKeyAcrossSetsAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockWriter := NewMockWriter(ctrl)
	svc := NewTimeseriesService(mockWriter, nil, nil, nil)
	ctx := context.Background()

	// the same raw key may appear in both sets: classification disambiguates
	samples := []models.Sample{{
		Metric: &models.Metric{
			Key:      "m",
			Tags:     []models.Tag{{Key: "a", Value: "1"}},
			MetaTags: []models.Tag{{Key: "a", Value: "2"}},
		},
	}}
	mockWriter.EXPECT().Store(ctx, samples).Return(nil)

	assert.NoError(t, svc.Store(ctx, samples))
}

func TestTimeseriesService_ListMetrics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockLister := NewMockLister(ctrl)
	svc := NewTimeseriesService(nil, mockLister, nil, nil)
	ctx := context.Background()

	filter := []models.Tag{{Key: "resourceId", Value: "r1"}}
	want := []models.Metric{{Key: "node1.cpu"}}
	mockLister.EXPECT().ListMetrics(ctx, filter).Return(want, nil)

	got, err := svc.ListMetrics(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestTimeseriesService_GetTimeseries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockFetcher := NewMockFetcher(ctrl)
	svc := NewTimeseriesService(nil, nil, mockFetcher, nil)
	ctx := context.Background()

	metric := &models.Metric{Key: "node1.cpu"}
	start := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Minute)

	t.Run("raw samples without step", func(t *testing.T) {
		req := models.TimeseriesRequest{Metric: metric, Start: start, End: end}
		want := []models.Sample{{Metric: metric, Time: start, Value: 1}}
		mockFetcher.EXPECT().GetTimeseries(ctx, req).Return(want, nil)

		got, err := svc.GetTimeseries(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("step averages per window", func(t *testing.T) {
		req := models.TimeseriesRequest{Metric: metric, Start: start, End: end, Step: 10 * time.Second}
		raw := []models.Sample{
			{Metric: metric, Time: start, Value: 1},
			{Metric: metric, Time: start.Add(4 * time.Second), Value: 3},
			{Metric: metric, Time: start.Add(15 * time.Second), Value: 10},
			{Metric: metric, Time: start.Add(35 * time.Second), Value: 7},
		}
		mockFetcher.EXPECT().GetTimeseries(ctx, req).Return(raw, nil)

		got, err := svc.GetTimeseries(ctx, req)
		require.NoError(t, err)
		require.Len(t, got, 3)

		assert.Equal(t, start, got[0].Time)
		assert.Equal(t, 2.0, got[0].Value, "window [0s,10s) averages 1 and 3")
		assert.Equal(t, start.Add(10*time.Second), got[1].Time)
		assert.Equal(t, 10.0, got[1].Value)
		assert.Equal(t, start.Add(30*time.Second), got[2].Time)
		assert.Equal(t, 7.0, got[2].Value)
		assert.Same(t, metric, got[0].Metric)
	})

	t.Run("nil metric rejected", func(t *testing.T) {
		_, err := svc.GetTimeseries(ctx, models.TimeseriesRequest{Start: start, End: end})
		assert.EqualError(t, err, "metric is required")
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, err := svc.GetTimeseries(ctx, models.TimeseriesRequest{Metric: metric, Start: end, End: start})
		assert.EqualError(t, err, "end must be after start")
	})

	t.Run("fetcher error propagates", func(t *testing.T) {
		req := models.TimeseriesRequest{Metric: metric, Start: start, End: end}
		mockFetcher.EXPECT().GetTimeseries(ctx, req).Return(nil, errors.New("query failed"))

		_, err := svc.GetTimeseries(ctx, req)
		assert.EqualError(t, err, "query failed")
	})
}

func TestTimeseriesService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockDeleter := NewMockDeleter(ctrl)
	svc := NewTimeseriesService(nil, nil, nil, mockDeleter)
	ctx := context.Background()

	t.Run("delegates", func(t *testing.T) {
		metric := &models.Metric{Key: "node1.cpu"}
		mockDeleter.EXPECT().Delete(ctx, metric).Return(nil)
		assert.NoError(t, svc.Delete(ctx, metric))
	})

	t.Run("nil metric rejected", func(t *testing.T) {
		assert.EqualError(t, svc.Delete(ctx, nil), "metric is required")
	})
}
