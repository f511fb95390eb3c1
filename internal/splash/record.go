package splash

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid_date")

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z0700",
}

// Layouts without a zone are read in the source timezone.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTime reads an ISO-8601 timestamp and returns it in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.In(loc), nil
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// DateValue returns the first non-empty value among fields. It must be a string.
func DateValue(r Record, fields []string) (string, error) {
	for _, f := range fields {
		v, ok := r[f]
		if !ok || v == nil {
			continue
		}
		s, isString := v.(string)
		if !isString {
			return "", fmt.Errorf("%w: %s is %T", ErrInvalidDate, f, v)
		}
		if s == "" {
			continue
		}
		return s, nil
	}
	return "", fmt.Errorf("%w: none of %v set", ErrInvalidDate, fields)
}

// RecordDate resolves and parses the record's date.
func RecordDate(r Record, fields []string, loc *time.Location) (time.Time, error) {
	s, err := DateValue(r, fields)
	if err != nil {
		return time.Time{}, err
	}
	return ParseTime(s, loc)
}

// Int reads a JSON integer. Fractional numbers and strings are rejected.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// Number reads any JSON number as float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil && !math.IsNaN(f)
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Map returns v as a Record when it is a non-empty JSON object.
func Map(v any) (Record, bool) {
	m, ok := v.(map[string]any)
	if !ok || len(m) == 0 {
		return nil, false
	}
	return m, true
}

// List returns v as a slice, or nil for anything else.
func List(v any) []any {
	l, _ := v.([]any)
	return l
}

// Nested walks keys through objects and returns nil when any step is missing.
func Nested(r Record, keys ...string) any {
	var cur any = r
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// Copy is a shallow copy.
func Copy(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// IDKey renders an id for dedup and log fields.
func IDKey(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case json.Number:
		return n.String()
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return fmt.Sprint(n)
	}
}
