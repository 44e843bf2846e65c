// Package models defines data structures and domain types.
package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Timestamp is a time value decoded leniently from the remote service.
// It accepts ISO strings with or without a zone, Unix seconds or milliseconds,
// and treats null, empty or unparseable input as the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// layouts tried in order for string timestamps.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	t.Time = parseTimeField(data)
	return nil
}

// MarshalJSON implements json.Marshaler. The zero time encodes as null.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// parseTimeField attempts to parse a JSON time value as either ISO string or Unix timestamp.
func parseTimeField(data json.RawMessage) time.Time {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return time.Time{}
	}

	// Try as string first (ISO 8601)
	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, strVal); err == nil {
				return ts
			}
		}
		// Some services send numeric timestamps as strings
		if n, err := strconv.ParseFloat(strVal, 64); err == nil {
			return fromUnix(n)
		}
		return time.Time{}
	}

	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		return fromUnix(numVal)
	}

	return time.Time{}
}

func fromUnix(v float64) time.Time {
	if v <= 0 {
		return time.Time{}
	}
	if v > 1e12 {
		// Milliseconds
		return time.UnixMilli(int64(v))
	}
	return time.Unix(int64(v), 0)
}
