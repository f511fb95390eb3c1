// Package transform normalizes flattened Splash records, validates them against fixed row
// shapes and deduplicates them into load-ready tables.
package transform

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// Row is one validated record keyed by column name. Null columns hold nil.
type Row = map[string]any

// Synthetic describes a derived key: Field = UUIDv5 over the Basis values, in order.
type Synthetic struct {
	Field string
	Basis []string
}

// Model is the static description of one target table.
type Model struct {
	Table     string
	Key       string
	Synthetic []Synthetic
	// DedupOn replaces Key as the dedup identity when set.
	DedupOn []string

	shape   reflect.Type
	once    sync.Once
	columns []column
}

type column struct {
	name     string
	index    int
	required bool
}

// NewModel registers shape (a struct value) as the row shape of table.
func NewModel(table string, shape any, synthetic ...Synthetic) *Model {
	t := reflect.TypeOf(shape)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		panic(fmt.Sprintf("transform: shape for %s must be a struct, got %s", table, t))
	}
	return &Model{Table: table, Key: "id", Synthetic: synthetic, shape: t}
}

func (m *Model) WithDedupOn(fields ...string) *Model {
	m.DedupOn = fields
	return m
}

// New returns a pointer to a zero shape value, usable as a gorm model.
func (m *Model) New() any {
	return reflect.New(m.shape).Interface()
}

// Columns lists the decoded columns in declaration order, without system columns.
func (m *Model) Columns() []string {
	cols := m.cols()
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		out = append(out, c.name)
	}
	return out
}

func (m *Model) cols() []column {
	m.once.Do(func() {
		for i := 0; i < m.shape.NumField(); i++ {
			f := m.shape.Field(i)
			if f.Anonymous || !f.IsExported() {
				continue
			}
			name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
			if name == "" || name == "-" {
				continue
			}
			m.columns = append(m.columns, column{
				name:     name,
				index:    i,
				required: f.Type.Kind() != reflect.Ptr,
			})
		}
	})
	return m.columns
}

// row reads a decoded shape back into a Row, dereferencing optional fields.
func (m *Model) row(shape any) Row {
	v := reflect.Indirect(reflect.ValueOf(shape))
	out := make(Row, len(m.cols())+2)
	for _, c := range m.cols() {
		fv := v.Field(c.index)
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				out[c.name] = nil
				continue
			}
			fv = fv.Elem()
		}
		out[c.name] = fv.Interface()
	}
	return out
}

// identity is the dedup key for a row.
func (m *Model) identity(r Row) string {
	fields := m.DedupOn
	if len(fields) == 0 {
		fields = []string{m.Key}
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, "%v\x1f", r[f])
	}
	return b.String()
}
