package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp is an observation time as received. Go's time.Time always carries
// a location, so whether the producer actually supplied a UTC offset is kept
// separately; a naive timestamp is parsed as UTC with HasOffset false.
type Timestamp struct {
	Time      time.Time
	HasOffset bool
}

// At returns a Timestamp for t with an explicit offset.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t, HasOffset: true}
}

// IsZero reports whether no timestamp was supplied. An explicit offset marks
// the timestamp as present even at the zero instant.
func (ts Timestamp) IsZero() bool {
	return !ts.HasOffset && ts.Time.IsZero()
}

// Offset-bearing layouts, tried in order.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
}

// Layouts without any offset. Parsing succeeds, but the result is naive.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an ISO 8601 / RFC 3339 date-time. Strings that carry an
// offset ("Z", "+05:30") produce a Timestamp with HasOffset set; well-formed
// strings without one are returned naive so the engine can reject them with a
// precise reason instead of a parse error.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, HasOffset: true}, nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, HasOffset: false}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("parse timestamp %q: not an ISO 8601 date-time", s)
}

// String formats offset-bearing timestamps as RFC 3339 and naive ones without
// an offset suffix, mirroring the input.
func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	if !ts.HasOffset {
		return ts.Time.Format("2006-01-02T15:04:05.999999999")
	}
	return ts.Time.Format(time.RFC3339Nano)
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.String())
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse timestamp: %w", err)
	}
	if s == nil {
		*ts = Timestamp{}
		return nil
	}
	parsed, err := ParseTimestamp(*s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}
