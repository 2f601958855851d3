// Package flux builds the literal Flux query and predicate strings sent to
// InfluxDB. Callers must pass already-encoded measurement names (see the
// codec package); identifiers are interpolated into the query text verbatim.
package flux

import (
	"fmt"
	"time"
)

// scanLookback bounds the catalog discovery scan. Influx refuses unbounded
// ranges, and five years covers any retention policy this adapter targets.
const scanLookback = "-5y"

// rangeTimeLayout serializes range boundaries the way Influx's range filter
// expects them: UTC, second resolution, trailing Z.
const rangeTimeLayout = "2006-01-02T15:04:05Z"

// valueField is the single numeric field written per sample.
const valueField = "value"

// ScanQuery returns the catalog discovery query for a bucket. It enumerates
// the distinct tag-key sets of every series seen within the lookback window;
// each returned record carries the full column map of one series.
func ScanQuery(bucket string) string {
	return fmt.Sprintf("from(bucket:%q)\n  |> range(start: %s)\n  |> keys()", bucket, scanLookback)
}

// RangeQuery returns the query selecting the numeric field of one measurement
// over [start, end). Boundaries are normalized to UTC.
func RangeQuery(bucket string, measurement string, start time.Time, end time.Time) string {
	return fmt.Sprintf("from(bucket:%q)\n"+
		"  |> range(start: %s, stop: %s)\n"+
		"  |> filter(fn: (r) => r._measurement == %q)\n"+
		"  |> filter(fn: (r) => r._field == %q)",
		bucket,
		start.UTC().Format(rangeTimeLayout),
		end.UTC().Format(rangeTimeLayout),
		measurement,
		valueField,
	)
}

// DeletePredicate returns the equality predicate selecting every point of one
// measurement. Bucket and org scope are supplied at the delete call site.
func DeletePredicate(measurement string) string {
	return fmt.Sprintf("_measurement=%q", measurement)
}
