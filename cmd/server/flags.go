package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sbilibin2017/influxts/internal/configs"
	"github.com/spf13/pflag"
)

var (
	addr         string
	influxURL    string
	influxToken  string
	influxOrg    string
	influxBucket string
	catalogTTL   int
	warmInterval int
	useMemory    bool
)

// init sets up command-line flags.
func init() {
	pflag.StringVarP(&addr, "address", "a", ":8080", "server address to listen on")
	pflag.StringVarP(&influxURL, "influx-url", "u", "", "InfluxDB server URL")
	pflag.StringVarP(&influxToken, "influx-token", "t", "", "InfluxDB API token")
	pflag.StringVarP(&influxOrg, "influx-org", "o", "", "InfluxDB organization")
	pflag.StringVarP(&influxBucket, "influx-bucket", "b", "", "InfluxDB bucket")
	pflag.IntVar(&catalogTTL, "catalog-ttl", 60, "metric catalog cache TTL in seconds")
	pflag.IntVarP(&warmInterval, "warm-interval", "w", 0, "catalog warm interval in seconds (0 disables warming)")
	pflag.BoolVarP(&useMemory, "memory", "m", false, "use the in-memory backend instead of InfluxDB")
}

// parseFlags combines flags and environment variables into a validated
// server configuration. Environment variables take priority over flags.
func parseFlags() (*configs.ServerConfig, error) {
	pflag.Parse()

	if len(pflag.Args()) > 0 {
		return nil, errors.New("unknown flags or arguments are provided")
	}

	envTTL, err := intEnv("CATALOG_TTL")
	if err != nil {
		return nil, err
	}
	envWarm, err := intEnv("WARM_INTERVAL")
	if err != nil {
		return nil, err
	}
	envMemory := os.Getenv("USE_MEMORY") == "true"

	cfg, err := configs.NewServerConfig(
		configs.WithAddress(os.Getenv("ADDRESS"), addr),
		configs.WithInfluxURL(os.Getenv("INFLUX_URL"), influxURL),
		configs.WithInfluxToken(os.Getenv("INFLUX_TOKEN"), influxToken),
		configs.WithInfluxOrg(os.Getenv("INFLUX_ORG"), influxOrg),
		configs.WithInfluxBucket(os.Getenv("INFLUX_BUCKET"), influxBucket),
		configs.WithCatalogTTL(envTTL, catalogTTL),
		configs.WithWarmInterval(envWarm, warmInterval),
		configs.WithUseMemory(envMemory, useMemory),
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
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
