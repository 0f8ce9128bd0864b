package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Int reads an integral number from a decoded document. It accepts the
// shapes produced by encoding/json (float64 or json.Number) as well as Go
// integers. Non-integral, non-finite or missing values report ok=false.
func Int(fields map[string]any, key string) (int64, bool) {
	switch v := fields[key].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := strconv.ParseFloat(v.String(), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}

// Number reads any finite number from a decoded document, integral or not.
func Number(fields map[string]any, key string) (float64, bool) {
	var f float64
	switch v := fields[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case float64:
		f = v
	case json.Number:
		parsed, err := strconv.ParseFloat(v.String(), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func Bool(fields map[string]any, key string) bool {
	b, _ := fields[key].(bool)
	return b
}

func String(fields map[string]any, key string) string {
	s, _ := fields[key].(string)
	return s
}

// Time reads an RFC 3339 timestamp. Missing or malformed values give the
// zero time.
func Time(fields map[string]any, key string) time.Time {
	switch v := fields[key].(type) {
	case time.Time:
		return v
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err == nil {
			return t
		}
	}
	return time.Time{}
}

// Timestamp formats t the way documents store it.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
