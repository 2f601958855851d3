package agent

import (
	"context"
	"os"
	"time"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"

	"github.com/sbilibin2017/influxts/internal/models"
)

// Sender defines an interface to ship batches of samples.
type Sender interface {
	// Store sends a batch of samples.
	Store(ctx context.Context, samples []models.Sample) error
}

// NewSampleAgent creates and returns a function that runs the host sampling loop.
func NewSampleAgent(
	sender Sender,
	pollTicker *time.Ticker,
	reportTicker *time.Ticker,
) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		return startSampleAgent(ctx, sender, pollTicker, reportTicker)
	}
}

// startSampleAgent runs the agent loop that polls and ships host samples
func startSampleAgent(
	ctx context.Context,
	sender Sender,
	pollTicker *time.Ticker,
	reportTicker *time.Ticker,
) error {
	sampleCh := sampleGenerator(ctx, pollTicker, collectHostSamples)
	return sendSamples(ctx, reportTicker, sender, sampleCh)
}

// sampleGenerator emits host samples on every tick using collector
func sampleGenerator(
	ctx context.Context,
	ticker *time.Ticker,
	collector func() ([]models.Sample, error),
) chan models.Sample {
	out := make(chan models.Sample, 100)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				samples, err := collector()
				if err != nil {
					continue
				}
				for _, s := range samples {
					out <- s
				}
			}
		}
	}()
	return out
}

// collectHostSamples collects memory and CPU readings for the local host
func collectHostSamples() ([]models.Sample, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var samples []models.Sample

	if vm, err := mem.VirtualMemory(); err == nil {
		samples = append(samples,
			hostSample(host, "mem.total", "bytes", now, float64(vm.Total)),
			hostSample(host, "mem.free", "bytes", now, float64(vm.Free)),
			hostSample(host, "mem.usedPercent", "percent", now, vm.UsedPercent),
		)
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		samples = append(samples,
			hostSample(host, "cpu.utilization", "percent", now, percents[0]))
	}

	return samples, nil
}

// hostSample builds one sample keyed "<host>.<name>" with the host as
// resourceId and the unit as external metadata.
func hostSample(host, name, unit string, at time.Time, value float64) models.Sample {
	return models.Sample{
		Metric: &models.Metric{
			Key:      host + "." + name,
			Tags:     []models.Tag{{Key: "resourceId", Value: host}},
			MetaTags: []models.Tag{{Key: "unit", Value: unit}},
		},
		Time:  at,
		Value: value,
	}
}

// flushTimeout bounds the final batch delivery after the loop context is
// already cancelled.
const flushTimeout = 5 * time.Second

// sendSamples batches samples from channel and calls sender.Store on ticker or ctx.Done()
func sendSamples(
	ctx context.Context,
	ticker *time.Ticker,
	sender Sender,
	in chan models.Sample,
) error {
	var batch []models.Sample

	for {
		select {
		case <-ctx.Done():
			if len(batch) > 0 {
				return flush(sender, batch)
			}
			return ctx.Err()

		case s, ok := <-in:
			if !ok {
				if len(batch) > 0 {
					return flush(sender, batch)
				}
				return nil
			}
			batch = append(batch, s)

		case <-ticker.C:
			if len(batch) > 0 {
				if err := sender.Store(ctx, batch); err != nil {
					return err
				}
				batch = batch[:0]
			}
		}
	}
}

// flush delivers the last batch on shutdown. The loop context is already
// cancelled at this point, so the send runs on its own short-lived one.
func flush(sender Sender, batch []models.Sample) error {
	flushCtx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	return sender.Store(flushCtx, batch)
}
