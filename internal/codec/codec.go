// Package codec maps metric keys and tags between the abstract model and
// InfluxDB-safe string representations. All functions are pure; encoding
// never fails, decoding degrades to the input instead of erroring.
package codec

import (
	"strings"

	"github.com/sbilibin2017/influxts/internal/models"
)

// classifiedKeySeparator joins a tag classification and a raw tag key.
const classifiedKeySeparator = "_"

// Escape tokens for tag values. A colon breaks Flux filter expressions,
// so it is substituted with a token; the token lead-in itself is escaped
// first so the mapping stays reversible for every input.
const (
	escapeToken = "%25" // literal '%'
	colonToken  = "%3A" // literal ':'
)

// tagTypes lists the recognized classifications, checked in this order
// by UnclassifyTagKey.
var tagTypes = []string{models.TagTypeIntrinsic, models.TagTypeMeta}

// EncodeMetricKey turns a metric key into a measurement name safe for
// interpolation into Flux query strings. Offending characters are replaced
// rather than stripped so distinct keys stay distinct where possible.
// The result is stable: the same key always encodes the same way.
func EncodeMetricKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\\', '\n', '\r':
			return '_'
		}
		return r
	}, key)
}

// EncodeTagValue makes a tag value safe for Flux filtering by replacing
// colons with a reversible token. DecodeTagValue inverts it exactly:
// DecodeTagValue(EncodeTagValue(v)) == v for every v.
func EncodeTagValue(value string) string {
	value = strings.ReplaceAll(value, "%", escapeToken)
	return strings.ReplaceAll(value, ":", colonToken)
}

// DecodeTagValue restores a tag value produced by EncodeTagValue. An input
// containing a '%' that does not begin a known token cannot have come from
// the encoder; such input is returned unchanged so that one malformed tag
// never invalidates the metric it belongs to.
func DecodeTagValue(value string) string {
	if !validEncodedValue(value) {
		return value
	}
	value = strings.ReplaceAll(value, colonToken, ":")
	return strings.ReplaceAll(value, escapeToken, "%")
}

// validEncodedValue reports whether every '%' in value starts an escape or
// colon token.
func validEncodedValue(value string) bool {
	for i := 0; i < len(value); i++ {
		if value[i] != '%' {
			continue
		}
		rest := value[i:]
		if !strings.HasPrefix(rest, escapeToken) && !strings.HasPrefix(rest, colonToken) {
			return false
		}
		i += len(escapeToken) - 1
	}
	return true
}

// ClassifyTagKey prefixes a raw tag key with its classification. The mapping
// (classification, key) -> classified key is injective and the result never
// collides with Influx's reserved columns, which all start with '_'.
func ClassifyTagKey(tagType string, key string) string {
	return tagType + classifiedKeySeparator + key
}

// UnclassifyTagKey splits a classified key back into classification and raw
// key. ok is false for keys without a recognized classification prefix,
// meaning the column belongs to Influx itself, not to this adapter.
func UnclassifyTagKey(classifiedKey string) (tagType string, key string, ok bool) {
	for _, tt := range tagTypes {
		prefix := tt + classifiedKeySeparator
		if strings.HasPrefix(classifiedKey, prefix) {
			return tt, classifiedKey[len(prefix):], true
		}
	}
	return "", "", false
}
