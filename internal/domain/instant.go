package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Timestamps reach us in several shapes depending on which import path
// produced the document: RFC3339 strings, epoch seconds, epoch millis, or a
// native time. ParseInstant normalizes all of them at the data-access
// boundary into a canonical UTC instant. The zero time is the explicit
// "invalid" sentinel; business logic never branches on the raw shape.
func ParseInstant(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return time.Time{}
		}
		return t.UTC()
	case string:
		return parseInstantString(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return time.Time{}
		}
		return epochToTime(f)
	case float64:
		return epochToTime(t)
	case int64:
		return epochToTime(float64(t))
	case int:
		return epochToTime(float64(t))
	default:
		return time.Time{}
	}
}

func parseInstantString(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	// Bare numbers are epoch values.
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return epochToTime(f)
	}
	return time.Time{}
}

// epochToTime interprets an epoch value as seconds, or milliseconds when the
// magnitude makes seconds implausible (past year 33658).
func epochToTime(f float64) time.Time {
	if f <= 0 {
		return time.Time{}
	}
	if f >= 1e12 {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Unix(int64(f), 0).UTC()
}
