package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Tag classifications. Intrinsic tags form a metric's identity,
// meta tags carry auxiliary metadata.
const (
	TagTypeIntrinsic = "intrinsic" // TagTypeIntrinsic marks identity-bearing tags.
	TagTypeMeta      = "meta"      // TagTypeMeta marks descriptive tags.
)

// Tag is a key/value pair attached to a metric.
type Tag struct {
	Key   string `json:"key"`   // Tag key, must be non-empty.
	Value string `json:"value"` // Tag value.
}

// Metric identifies a time series by an opaque key and two disjoint tag sets.
// Tag keys are unique within each set. A Metric is immutable once built.
type Metric struct {
	Key      string `json:"key"`                 // Opaque metric key.
	Tags     []Tag  `json:"tags,omitempty"`      // Intrinsic (identity) tags.
	MetaTags []Tag  `json:"meta_tags,omitempty"` // Meta (auxiliary) tags.
}

// HasTag reports whether the metric carries the given tag, by exact
// key+value match, in either the intrinsic or the meta set.
func (m *Metric) HasTag(tag Tag) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	for _, t := range m.MetaTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Fingerprint returns a stable identity string over the key and both tag
// sets. Two metrics with the same key and tag sets (in any order) have the
// same fingerprint.
func (m *Metric) Fingerprint() string {
	parts := make([]string, 0, 1+len(m.Tags)+len(m.MetaTags))
	parts = append(parts, m.Key)
	for _, t := range m.Tags {
		parts = append(parts, TagTypeIntrinsic+"\x00"+t.Key+"\x00"+t.Value)
	}
	for _, t := range m.MetaTags {
		parts = append(parts, TagTypeMeta+"\x00"+t.Key+"\x00"+t.Value)
	}
	sort.Strings(parts[1:])
	return strings.Join(parts, "\x01")
}

// Sample is a single measured value of a metric at a point in time.
// Timestamps carry millisecond or better resolution.
type Sample struct {
	Metric *Metric   `json:"metric"` // Metric the sample belongs to.
	Time   time.Time `json:"time"`   // Sample timestamp.
	Value  float64   `json:"value"`  // Measured value.
}

// TimeseriesRequest asks for the samples of one metric over [Start, End).
type TimeseriesRequest struct {
	Metric *Metric       `json:"metric"`         // Metric to fetch; its identity is trusted as-is.
	Start  time.Time     `json:"start"`          // Range start, inclusive.
	End    time.Time     `json:"end"`            // Range end, exclusive.
	Step   time.Duration `json:"step,omitempty"` // Downsampling window in nanoseconds; <= 0 returns raw samples.
}

// StorageError is the single error type surfaced for backend failures.
// Callers cannot recover differently per cause at this layer, so the only
// structure kept is the failed operation and the wrapped cause.
type StorageError struct {
	Op  string // Operation that failed, e.g. "store" or "list metrics".
	Err error  // Underlying cause.
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Err
}
