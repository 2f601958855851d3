package influx

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
)

// Opt defines a function type that applies a configuration to the client options.
type Opt func(*influxdb2.Options)

// New builds an InfluxDB client for the given server URL and token and
// applies any given options. Timestamps are written with millisecond
// precision unless overridden.
func New(url string, token string, opts ...Opt) influxdb2.Client {
	options := influxdb2.DefaultOptions().SetPrecision(time.Millisecond)
	for _, opt := range opts {
		opt(options)
	}
	return influxdb2.NewClientWithOptions(url, token, options)
}

// WithPrecision sets the timestamp precision of written points.
func WithPrecision(opts ...time.Duration) Opt {
	return func(options *influxdb2.Options) {
		for _, opt := range opts {
			if opt != 0 {
				options.SetPrecision(opt)
				break
			}
		}
	}
}

// WithHTTPRequestTimeout sets the HTTP request timeout in seconds.
func WithHTTPRequestTimeout(opts ...uint) Opt {
	return func(options *influxdb2.Options) {
		for _, opt := range opts {
			if opt > 0 {
				options.SetHTTPRequestTimeout(opt)
				break
			}
		}
	}
}
