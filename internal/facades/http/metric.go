package http

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/sbilibin2017/influxts/internal/models"
)

// SampleHTTPFacade ships samples to a remote timeseries server.
type SampleHTTPFacade struct {
	client *resty.Client
}

// NewSampleHTTPFacade creates a new SampleHTTPFacade with the given REST client.
func NewSampleHTTPFacade(client *resty.Client) *SampleHTTPFacade {
	return &SampleHTTPFacade{
		client: client,
	}
}

// Store sends the whole batch as one JSON POST to "/api/samples".
func (f *SampleHTTPFacade) Store(ctx context.Context, samples []models.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(samples).
		Post("/api/samples")
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("store samples: server returned %s", resp.Status())
	}
	return nil
}
