package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServerConfig_FirstNonEmptyWins(t *testing.T) {
	cfg, err := NewServerConfig(
		WithAddress("", ":8080", ":9090"),
		WithInfluxURL("http://localhost:8086"),
		WithInfluxToken("", "secret"),
		WithInfluxOrg("my-org"),
		WithInfluxBucket("metrics"),
		WithCatalogTTL(0, 120),
		WithWarmInterval(30),
		WithUseMemory(false),
	)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Address)
	assert.Equal(t, "http://localhost:8086", cfg.InfluxURL)
	assert.Equal(t, "secret", cfg.InfluxToken)
	assert.Equal(t, "my-org", cfg.InfluxOrg)
	assert.Equal(t, "metrics", cfg.InfluxBucket)
	assert.Equal(t, 120, cfg.CatalogTTL)
	assert.Equal(t, 30, cfg.WarmInterval)
	assert.False(t, cfg.UseMemory)
}

func TestNewServerConfig_Defaults(t *testing.T) {
	cfg, err := NewServerConfig()
	require.NoError(t, err)

	assert.Empty(t, cfg.Address)
	assert.Zero(t, cfg.CatalogTTL)
	assert.False(t, cfg.UseMemory)
}

func TestServerConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServerConfig
		wantErr string
	}{
		{
			name: "valid influx config",
			cfg: ServerConfig{
				Address:      ":8080",
				InfluxURL:    "http://localhost:8086",
				InfluxToken:  "secret",
				InfluxOrg:    "my-org",
				InfluxBucket: "metrics",
			},
		},
		{
			name: "memory mode needs no influx settings",
			cfg:  ServerConfig{Address: ":8080", UseMemory: true},
		},
		{
			name:    "missing address",
			cfg:     ServerConfig{InfluxURL: "http://localhost:8086"},
			wantErr: "listen address is required",
		},
		{
			name:    "missing url",
			cfg:     ServerConfig{Address: ":8080", InfluxOrg: "o", InfluxBucket: "b"},
			wantErr: "influx url is required",
		},
		{
			name:    "missing token",
			cfg:     ServerConfig{Address: ":8080", InfluxURL: "http://localhost:8086", InfluxOrg: "o", InfluxBucket: "b"},
			wantErr: "influx token is required",
		},
		{
			name:    "missing org",
			cfg:     ServerConfig{Address: ":8080", InfluxURL: "http://localhost:8086", InfluxToken: "secret", InfluxBucket: "b"},
			wantErr: "influx org is required",
		},
		{
			name:    "missing bucket",
			cfg:     ServerConfig{Address: ":8080", InfluxURL: "http://localhost:8086", InfluxToken: "secret", InfluxOrg: "o"},
			wantErr: "influx bucket is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.wantErr)
			}
		})
	}
}
