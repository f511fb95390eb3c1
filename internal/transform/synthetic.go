package transform

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var ErrEmptyKeyBasis = errors.New("empty_key_basis")

// SyntheticKey is a deterministic UUIDv5 over the trimmed basis values of r. The namespace
// is derived from table, and every part is hashed as a length-prefixed "field=value" so
// the same values under other field names, or values that contain the separator, cannot
// collide. It fails when every basis value is empty.
func SyntheticKey(table string, r map[string]any, basis []string) (string, error) {
	var b strings.Builder
	nonEmpty := false
	for _, f := range basis {
		v := strings.TrimSpace(keyString(r[f]))
		if v != "" {
			nonEmpty = true
		}
		part := f + "=" + v
		b.WriteString(strconv.Itoa(len(part)))
		b.WriteByte(':')
		b.WriteString(part)
	}
	if !nonEmpty {
		return "", fmt.Errorf("%w: %s", ErrEmptyKeyBasis, strings.Join(basis, ","))
	}
	return uuid.NewSHA1(KeyNamespace(table), []byte(b.String())).String(), nil
}

// KeyNamespace is the UUIDv5 namespace of a table's synthetic keys.
func KeyNamespace(table string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToUpper(table)))
}

func keyString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
