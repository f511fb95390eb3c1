package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
)

// Step normalizes one record in place. Steps run on a private copy of the record.
type Step func(r splash.Record) error

var ErrNotNumeric = errors.New("not_numeric")

const (
	listDelimiter   = ", "
	UnspecifiedType = "Unspecified"
)

// StringifyList joins list values with ", ". Empty lists and non-lists become null.
func StringifyList(keys ...string) Step {
	return func(r splash.Record) error {
		for _, k := range keys {
			list, ok := r[k].([]any)
			if !ok || len(list) == 0 {
				r[k] = nil
				continue
			}
			parts := make([]string, len(list))
			for i, v := range list {
				parts[i] = keyString(v)
			}
			r[k] = strings.Join(parts, listDelimiter)
		}
		return nil
	}
}

// NullIfEmpty turns "" (and absence) into an explicit null.
func NullIfEmpty(keys ...string) Step {
	return func(r splash.Record) error {
		for _, k := range keys {
			if v, ok := r[k]; !ok || v == nil || v == "" {
				r[k] = nil
			}
		}
		return nil
	}
}

// SplitTyped splits "Type:id" held in key into key=id and typeKey=Type. Without a separator
// the whole value stays in key and typeKey gets fallback. Both keys are always present.
func SplitTyped(key, typeKey, fallback string) Step {
	return func(r splash.Record) error {
		raw := r[key]
		setDefault(r, key, nil)
		setDefault(r, typeKey, nil)

		s := keyString(raw)
		if raw == nil || s == "" {
			return nil
		}
		if typ, id, ok := strings.Cut(s, ":"); ok {
			r[key] = id
			r[typeKey] = typ
			return nil
		}
		r[key] = s
		r[typeKey] = fallback
		return nil
	}
}

// Rename moves from to to when from is present.
func Rename(from, to string) Step {
	return func(r splash.Record) error {
		if v, ok := r[from]; ok {
			r[to] = v
			delete(r, from)
		}
		return nil
	}
}

// Adopt moves from into to unless to already holds a value. from is always removed.
func Adopt(from, to string) Step {
	return func(r splash.Record) error {
		v, ok := r[from]
		if !ok {
			return nil
		}
		delete(r, from)
		if cur, set := r[to]; !set || cur == nil {
			r[to] = v
		}
		return nil
	}
}

// CopyNested sets dst to the value at path, or null when any step is missing.
func CopyNested(dst string, path ...string) Step {
	return func(r splash.Record) error {
		r[dst] = splash.Nested(r, path...)
		return nil
	}
}

// Sum sets dst to the sum of fields; missing or null fields count as zero.
func Sum(dst string, fields ...string) Step {
	return func(r splash.Record) error {
		var (
			total    float64
			integral = true
		)
		for _, f := range fields {
			v := r[f]
			if v == nil {
				continue
			}
			n, ok := splash.Number(v)
			if !ok {
				return fmt.Errorf("%w: %s=%v", ErrNotNumeric, f, v)
			}
			if _, isInt := splash.Int(v); !isInt {
				integral = false
			}
			total += n
		}
		if integral {
			r[dst] = json.Number(strconv.FormatInt(int64(total), 10))
		} else {
			r[dst] = json.Number(strconv.FormatFloat(total, 'f', -1, 64))
		}
		return nil
	}
}

// NonZero sets dst to whether the number at path is non-zero. Missing counts as zero.
func NonZero(dst string, path ...string) Step {
	return func(r splash.Record) error {
		v := splash.Nested(r, path...)
		if v == nil {
			r[dst] = false
			return nil
		}
		n, ok := splash.Number(v)
		if !ok {
			return fmt.Errorf("%w: %s=%v", ErrNotNumeric, strings.Join(path, "."), v)
		}
		r[dst] = n != 0
		return nil
	}
}

// SetDefault sets key from fn when the key is absent.
func SetDefault(key string, fn func(r splash.Record) any) Step {
	return func(r splash.Record) error {
		if _, ok := r[key]; !ok {
			r[key] = fn(r)
		}
		return nil
	}
}

// FullName joins first_name and last_name.
func FullName(r splash.Record) any {
	first, _ := r["first_name"].(string)
	last, _ := r["last_name"].(string)
	return strings.TrimSpace(first + " " + last)
}

// ObjectRef tags a question with the object it belongs to: the event when event_id is
// present, otherwise the ticket type.
func ObjectRef() Step {
	return func(r splash.Record) error {
		if v, ok := r["event_id"]; ok {
			r["object_id"] = v
			r["object_type"] = "event"
			return nil
		}
		if v, ok := r["ticket_type_id"]; ok {
			r["object_id"] = v
			r["object_type"] = "ticket_type"
		}
		return nil
	}
}

func setDefault(r splash.Record, key string, v any) {
	if _, ok := r[key]; !ok {
		r[key] = v
	}
}
