package configs

import (
	"errors"
	"strings"
)

// ServerConfig holds configuration settings for the timeseries server.
type ServerConfig struct {
	Address      string `json:"address"`       // Listen address
	InfluxURL    string `json:"influx_url"`    // InfluxDB server URL
	InfluxToken  string `json:"influx_token"`  // InfluxDB API token
	InfluxOrg    string `json:"influx_org"`    // InfluxDB organization
	InfluxBucket string `json:"influx_bucket"` // InfluxDB bucket
	CatalogTTL   int    `json:"catalog_ttl"`   // Catalog cache TTL in seconds
	WarmInterval int    `json:"warm_interval"` // Interval in seconds to refresh the catalog (0 disables warming)
	UseMemory    bool   `json:"use_memory"`    // Use the in-memory backend instead of InfluxDB
}

// ServerConfigOpt defines a function type for applying options to ServerConfig.
type ServerConfigOpt func(*ServerConfig) error

// NewServerConfig creates a new ServerConfig by applying the given options.
// Returns an error if any option returns an error.
func NewServerConfig(opts ...ServerConfigOpt) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Validate checks that the configuration is usable. The InfluxDB
// connection settings are required unless the in-memory backend is
// selected.
func (cfg *ServerConfig) Validate() error {
	if strings.TrimSpace(cfg.Address) == "" {
		return errors.New("listen address is required")
	}
	if cfg.UseMemory {
		return nil
	}
	if strings.TrimSpace(cfg.InfluxURL) == "" {
		return errors.New("influx url is required")
	}
	if strings.TrimSpace(cfg.InfluxToken) == "" {
		return errors.New("influx token is required")
	}
	if strings.TrimSpace(cfg.InfluxOrg) == "" {
		return errors.New("influx org is required")
	}
	if strings.TrimSpace(cfg.InfluxBucket) == "" {
		return errors.New("influx bucket is required")
	}
	return nil
}

// WithAddress returns a ServerConfigOpt that sets the Address field
// to the first non-empty string provided in addrs.
func WithAddress(addrs ...string) ServerConfigOpt {
	return func(cfg *ServerConfig) error {
		for _, addr := range addrs {
			if strings.TrimSpace(addr) != "" {
				cfg.Address = addr
				break
			}
		}
		return nil
	}
}

// WithInfluxURL returns a ServerConfigOpt that sets the InfluxURL field
// to the first non-empty string provided in urls.
func WithInfluxURL(urls ...string) ServerConfigOpt {
	return func(cfg *ServerConfig) error {
		for _, url := range urls {
			if strings.TrimSpace(url) != "" {
				cfg.InfluxURL = url
				break
			}
		}
		return nil
	}
}

// WithInfluxToken returns a ServerConfigOpt that sets the InfluxToken field
// to the first non-empty string provided in tokens.
func WithInfluxToken(tokens ...string) ServerConfigOpt {
	return func(cfg *ServerConfig) error {
		for _, token := range tokens {
			if strings.TrimSpace(token) != "" {
				cfg.InfluxToken = token
				break
			}
		}
		return nil
	}
}

// WithInfluxOrg returns a ServerConfigOpt that sets the InfluxOrg field
// to the first non-empty string provided in orgs.
func WithInfluxOrg(orgs ...string) ServerConfigOpt {
	return func(cfg *ServerConfig) error {
		for _, org := range orgs {
			if strings.TrimSpace(org) != "" {
				cfg.InfluxOrg = org
				break
			}
		}
		return nil
	}
}

// WithInfluxBucket returns a ServerConfigOpt that sets the InfluxBucket field
// to the first non-empty string provided in buckets.
func WithInfluxBucket(buckets ...string) ServerConfigOpt {
	return func(cfg *ServerConfig) error {
		for _, bucket := range buckets {
			if strings.TrimSpace(bucket) != "" {
				cfg.InfluxBucket = bucket
				break
			}
		}
		return nil
	}
}

// WithCatalogTTL returns a ServerConfigOpt that sets the CatalogTTL field
// to the first positive integer provided in ttls.
func WithCatalogTTL(ttls ...int) ServerConfigOpt {
	return func(cfg *ServerConfig) error {
		for _, ttl := range ttls {
			if ttl > 0 {
				cfg.CatalogTTL = ttl
				break
			}
		}
		return nil
	}
}

// WithWarmInterval returns a ServerConfigOpt that sets the WarmInterval field
// to the first positive integer provided in intervals.
func WithWarmInterval(intervals ...int) ServerConfigOpt {
	return func(cfg *ServerConfig) error {
		for _, interval := range intervals {
			if interval > 0 {
				cfg.WarmInterval = interval
				break
			}
		}
		return nil
	}
}

// WithUseMemory returns a ServerConfigOpt that sets the UseMemory field
// to true if any of the provided boolean values is true.
func WithUseMemory(flags ...bool) ServerConfigOpt {
	return func(cfg *ServerConfig) error {
		for _, f := range flags {
			if f {
				cfg.UseMemory = f
				break
			}
		}
		return nil
	}
}
