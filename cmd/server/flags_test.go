package main

import (
	"os"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags resets pflag.CommandLine to avoid test pollution.
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet("test", pflag.ContinueOnError)
	pflag.StringVarP(&addr, "address", "a", ":8080", "server address to listen on")
	pflag.StringVarP(&influxURL, "influx-url", "u", "", "InfluxDB server URL")
	pflag.StringVarP(&influxToken, "influx-token", "t", "", "InfluxDB API token")
	pflag.StringVarP(&influxOrg, "influx-org", "o", "", "InfluxDB organization")
	pflag.StringVarP(&influxBucket, "influx-bucket", "b", "", "InfluxDB bucket")
	pflag.IntVar(&catalogTTL, "catalog-ttl", 60, "metric catalog cache TTL in seconds")
	pflag.IntVarP(&warmInterval, "warm-interval", "w", 0, "catalog warm interval in seconds (0 disables warming)")
	pflag.BoolVarP(&useMemory, "memory", "m", false, "use the in-memory backend instead of InfluxDB")
}

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	defer func() { os.Args = origArgs }()

	t.Run("influx flags", func(t *testing.T) {
		resetFlags()
		os.Args = []string{"server",
			"-a", "127.0.0.1:9090",
			"-u", "http://localhost:8086",
			"-t", "secret",
			"-o", "my-org",
			"-b", "metrics",
			"--catalog-ttl", "120",
			"-w", "30",
		}

		cfg, err := parseFlags()
		require.NoError(t, err)

		assert.Equal(t, "127.0.0.1:9090", cfg.Address)
		assert.Equal(t, "http://localhost:8086", cfg.InfluxURL)
		assert.Equal(t, "secret", cfg.InfluxToken)
		assert.Equal(t, "my-org", cfg.InfluxOrg)
		assert.Equal(t, "metrics", cfg.InfluxBucket)
		assert.Equal(t, 120, cfg.CatalogTTL)
		assert.Equal(t, 30, cfg.WarmInterval)
		assert.False(t, cfg.UseMemory)
	})

	t.Run("memory mode needs no influx flags", func(t *testing.T) {
		resetFlags()
		os.Args = []string{"server", "-m"}

		cfg, err := parseFlags()
		require.NoError(t, err)

		assert.Equal(t, ":8080", cfg.Address)
		assert.True(t, cfg.UseMemory)
	})

	t.Run("environment overrides flags", func(t *testing.T) {
		resetFlags()
		os.Args = []string{"server", "-a", ":9090", "-m"}
		t.Setenv("ADDRESS", ":7070")
		t.Setenv("CATALOG_TTL", "15")

		cfg, err := parseFlags()
		require.NoError(t, err)

		assert.Equal(t, ":7070", cfg.Address)
		assert.Equal(t, 15, cfg.CatalogTTL)
	})

	t.Run("invalid integer env", func(t *testing.T) {
		resetFlags()
		os.Args = []string{"server", "-m"}
		t.Setenv("CATALOG_TTL", "soon")

		_, err := parseFlags()
		assert.Error(t, err)
	})

	t.Run("missing influx settings rejected", func(t *testing.T) {
		resetFlags()
		os.Args = []string{"server"}

		_, err := parseFlags()
		assert.EqualError(t, err, "influx url is required")
	})

	t.Run("positional arguments rejected", func(t *testing.T) {
		resetFlags()
		os.Args = []string{"server", "-m", "leftover"}

		_, err := parseFlags()
		assert.EqualError(t, err, "unknown flags or arguments are provided")
	})
}
