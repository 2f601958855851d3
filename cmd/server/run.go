package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sbilibin2017/influxts/internal/configs"
	influxClient "github.com/sbilibin2017/influxts/internal/configs/influx"
	httpHandlers "github.com/sbilibin2017/influxts/internal/handlers/http"
	httpMiddlewares "github.com/sbilibin2017/influxts/internal/middlewares/http"
	influxRepo "github.com/sbilibin2017/influxts/internal/repositories/influx"
	"github.com/sbilibin2017/influxts/internal/repositories/memory"
	"github.com/sbilibin2017/influxts/internal/runner"
	"github.com/sbilibin2017/influxts/internal/services"
	"github.com/sbilibin2017/influxts/internal/worker"
)

// metricRepository is everything the service layer needs from a backend.
type metricRepository interface {
	services.Writer
	services.Lister
	services.Fetcher
	services.Deleter
}

// run wires the selected storage backend into the HTTP server and blocks
// until shutdown.
func run(ctx context.Context, cfg *configs.ServerConfig) error {
	if cfg.UseMemory {
		return serve(ctx, cfg, memory.NewMetricRepository())
	}

	client := influxClient.New(cfg.InfluxURL, cfg.InfluxToken)
	defer client.Close()

	var opts []influxRepo.Opt
	if cfg.CatalogTTL > 0 {
		opts = append(opts, influxRepo.WithCatalogTTL(time.Duration(cfg.CatalogTTL)*time.Second))
	}

	repo := influxRepo.NewMetricRepository(
		client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		client.QueryAPI(cfg.InfluxOrg),
		client.DeleteAPI(),
		cfg.InfluxBucket,
		cfg.InfluxOrg,
		opts...,
	)
	return serve(ctx, cfg, repo)
}

// serve runs the HTTP API plus the optional catalog warmer on top of the
// given backend.
func serve(ctx context.Context, cfg *configs.ServerConfig, repo metricRepository) error {
	service := services.NewTimeseriesService(repo, repo, repo, repo)

	router := chi.NewRouter()
	router.Use(httpMiddlewares.LoggingMiddleware)

	router.Post("/api/samples", httpHandlers.NewSampleStoreBodyHandler(service))
	router.Post("/api/metrics/list", httpHandlers.NewMetricListBodyHandler(service))
	router.Post("/api/timeseries", httpHandlers.NewTimeseriesQueryBodyHandler(service))
	router.Post("/api/metrics/delete", httpHandlers.NewMetricDeleteBodyHandler(service))

	r := runner.NewRunner()
	r.AddHTTPServer(&http.Server{Addr: cfg.Address, Handler: router})

	if cfg.WarmInterval > 0 {
		warmTicker := time.NewTicker(time.Duration(cfg.WarmInterval) * time.Second)
		defer warmTicker.Stop()
		r.AddWorker(worker.NewCatalogWarmer(warmTicker, service))
	}

	return r.Run(ctx)
}
