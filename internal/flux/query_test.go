package flux

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScanQuery(t *testing.T) {
	query := ScanQuery("metrics")

	assert.Contains(t, query, `from(bucket:"metrics")`)
	assert.Contains(t, query, "range(start: -5y)")
	assert.Contains(t, query, "keys()")
}

func TestRangeQuery(t *testing.T) {
	start := time.Date(2022, 3, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2022, 3, 1, 11, 0, 0, 0, time.UTC)

	query := RangeQuery("metrics", "node1.cpu", start, end)

	assert.Contains(t, query, `from(bucket:"metrics")`)
	assert.Contains(t, query, "range(start: 2022-03-01T10:00:00Z, stop: 2022-03-01T11:00:00Z)")
	assert.Contains(t, query, `r._measurement == "node1.cpu"`)
	assert.Contains(t, query, `r._field == "value"`)
}

func TestRangeQuery_NormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	start := time.Date(2022, 3, 1, 13, 0, 0, 0, loc) // 10:00 UTC
	end := time.Date(2022, 3, 1, 14, 0, 0, 0, loc)   // 11:00 UTC

	query := RangeQuery("metrics", "node1.cpu", start, end)

	assert.Contains(t, query, "start: 2022-03-01T10:00:00Z")
	assert.Contains(t, query, "stop: 2022-03-01T11:00:00Z")
}

func TestDeletePredicate(t *testing.T) {
	assert.Equal(t, `_measurement="node1.cpu"`, DeletePredicate("node1.cpu"))
}
