package transform

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
)

var (
	ErrMissingField = errors.New("missing_required_field")
	ErrInvalidShape = errors.New("invalid_record_shape")
)

var timeType = reflect.TypeOf(time.Time{})

// decoder coerces records into row shapes. Unknown fields are ignored.
type decoder struct {
	loc      *time.Location
	validate *validator.Validate
}

func newDecoder(loc *time.Location) *decoder {
	if loc == nil {
		loc = time.UTC
	}
	return &decoder{loc: loc, validate: validator.New()}
}

func (d *decoder) timeHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if to != timeType || from.Kind() != reflect.String {
			return data, nil
		}
		return splash.ParseTime(reflect.ValueOf(data).String(), d.loc)
	}
}

// decode validates r against m and returns the row.
func (d *decoder) decode(m *Model, r splash.Record) (Row, error) {
	var missing []string
	for _, c := range m.cols() {
		if c.required && r[c.name] == nil {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}

	shape := m.New()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       d.timeHook(),
		WeaklyTypedInput: true,
		Result:           shape,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]any(r)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	if err := d.validate.Struct(shape); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, err)
	}
	return m.row(shape), nil
}
