package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sbilibin2017/influxts/internal/agent"
	"github.com/sbilibin2017/influxts/internal/configs"
	"github.com/spf13/pflag"

	httpClient "github.com/sbilibin2017/influxts/internal/configs/transport/http"
	httpFacades "github.com/sbilibin2017/influxts/internal/facades/http"
)

var (
	addr           string
	pollInterval   int
	reportInterval int
)

func init() {
	pflag.StringVarP(&addr, "address", "a", "http://localhost:8080", "timeseries server URL")
	pflag.IntVarP(&pollInterval, "poll-interval", "p", 2, "poll interval in seconds")
	pflag.IntVarP(&reportInterval, "report-interval", "r", 10, "report interval in seconds")
}

func parseFlags() (*configs.AgentConfig, error) {
	pflag.Parse()
	if len(pflag.Args()) > 0 {
		return nil, errors.New("unknown flags are provided")
	}

	envPoll, err := intEnv("POLL_INTERVAL")
	if err != nil {
		return nil, err
	}
	envReport, err := intEnv("REPORT_INTERVAL")
	if err != nil {
		return nil, err
	}

	cfg, err := configs.NewAgentConfig(
		configs.WithServerAddress(os.Getenv("ADDRESS"), addr),
		configs.WithPollInterval(envPoll, pollInterval),
		configs.WithReportInterval(envReport, reportInterval),
	)
	if err != nil {
		return nil, err
	}
	if cfg.PollInterval <= 0 || cfg.ReportInterval <= 0 {
		return nil, errors.New("poll and report intervals must be positive")
	}
	return cfg, nil
}

// intEnv reads an integer environment variable, returning 0 when unset.
func intEnv(name string) (int, error) {
	env := os.Getenv(name)
	if env == "" {
		return 0, nil
	}
	val, err := strconv.Atoi(env)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", name)
	}
	return val, nil
}

func main() {
	cfg, err := parseFlags()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *configs.AgentConfig) error {
	client, err := httpClient.New(
		cfg.Address,
		httpClient.WithTimeout(10*time.Second),
		httpClient.WithRetryPolicy(
			httpClient.RetryPolicy{
				Count:   3,
				Wait:    500 * time.Millisecond,
				MaxWait: 5 * time.Second,
			},
		),
	)
	if err != nil {
		return err
	}

	sender := httpFacades.NewSampleHTTPFacade(client)

	pollTicker := time.NewTicker(time.Duration(cfg.PollInterval) * time.Second)
	defer pollTicker.Stop()

	reportTicker := time.NewTicker(time.Duration(cfg.ReportInterval) * time.Second)
	defer reportTicker.Stop()

	return agent.NewSampleAgent(sender, pollTicker, reportTicker)(ctx)
}
