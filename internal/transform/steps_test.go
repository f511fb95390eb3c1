package transform

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestSyntheticKeyDeterministic(t *testing.T) {
	r := map[string]any{"event_id": json.Number("12"), "name": " rsvp_yes "}

	a, err := SyntheticKey("rsvp", r, []string{"event_id", "name"})
	require.NoError(t, err)
	b, err := SyntheticKey("rsvp", map[string]any{"event_id": int64(12), "name": "rsvp_yes"}, []string{"event_id", "name"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	ns := uuid.NewSHA1(uuid.NameSpaceOID, []byte("RSVP"))
	assert.Equal(t, ns, KeyNamespace("rsvp"))
	assert.Equal(t, uuid.NewSHA1(ns, []byte("11:event_id=1213:name=rsvp_yes")).String(), a)

	c, err := SyntheticKey("rsvp", r, []string{"name", "event_id"})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)

	d, err := SyntheticKey("rsvp", map[string]any{"event_id": json.Number("13"), "name": "rsvp_yes"}, []string{"event_id", "name"})
	require.NoError(t, err)
	assert.NotEqual(t, a, d)
}

func TestSyntheticKeyFieldSetsDiffer(t *testing.T) {
	xy, err := SyntheticKey("widget", map[string]any{"x": 1, "y": 2}, []string{"x", "y"})
	require.NoError(t, err)
	pq, err := SyntheticKey("widget", map[string]any{"p": 1, "q": 2}, []string{"p", "q"})
	require.NoError(t, err)
	assert.NotEqual(t, xy, pq)

	other, err := SyntheticKey("gadget", map[string]any{"x": 1, "y": 2}, []string{"x", "y"})
	require.NoError(t, err)
	assert.NotEqual(t, xy, other)
}

func TestSyntheticKeySeparatorInValues(t *testing.T) {
	a, err := SyntheticKey("widget", map[string]any{"x": "1-2", "y": "3"}, []string{"x", "y"})
	require.NoError(t, err)
	b, err := SyntheticKey("widget", map[string]any{"x": "1", "y": "2-3"}, []string{"x", "y"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	c, err := SyntheticKey("widget", map[string]any{"x": "1=y", "y": ""}, []string{"x", "y"})
	require.NoError(t, err)
	d, err := SyntheticKey("widget", map[string]any{"x": "1", "y": "y="}, []string{"x", "y"})
	require.NoError(t, err)
	assert.NotEqual(t, c, d)
}

func TestSyntheticKeyPartialBasis(t *testing.T) {
	key, err := SyntheticKey("rsvp", map[string]any{"event_id": json.Number("12")}, []string{"event_id", "name"})
	require.NoError(t, err)
	assert.Equal(t, uuid.NewSHA1(KeyNamespace("rsvp"), []byte("11:event_id=125:name=")).String(), key)
}

func TestSyntheticKeyEmptyBasis(t *testing.T) {
	_, err := SyntheticKey("rsvp", map[string]any{"name": "  ", "event_id": nil}, []string{"event_id", "name"})
	assert.ErrorIs(t, err, ErrEmptyKeyBasis)
}

func TestStringifyList(t *testing.T) {
	r := splash.Record{
		"types":  []any{"in_person", "virtual"},
		"ids":    []any{json.Number("1"), json.Number("2")},
		"empty":  []any{},
		"scalar": "x",
	}
	require.NoError(t, StringifyList("types", "ids", "empty", "scalar", "missing")(r))

	assert.Equal(t, "in_person, virtual", r["types"])
	assert.Equal(t, "1, 2", r["ids"])
	assert.Nil(t, r["empty"])
	assert.Nil(t, r["scalar"])
	assert.Contains(t, r, "missing")
	assert.Nil(t, r["missing"])
}

func TestSplitTyped(t *testing.T) {
	cases := []struct {
		name     string
		in       any
		wantID   any
		wantType any
	}{
		{"typed", "Lead:00Q123", "00Q123", "Lead"},
		{"untyped", "00Q123", "00Q123", UnspecifiedType},
		{"empty", "", "", nil},
		{"null", nil, nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := splash.Record{"salesforce_id": tc.in}
			require.NoError(t, SplitTyped("salesforce_id", "salesforce_object_type", UnspecifiedType)(r))
			assert.Equal(t, tc.wantID, r["salesforce_id"])
			assert.Equal(t, tc.wantType, r["salesforce_object_type"])
		})
	}
}

func TestNullIfEmpty(t *testing.T) {
	r := splash.Record{"lat": "", "lng": json.Number("1.5")}
	require.NoError(t, NullIfEmpty("lat", "lng")(r))
	assert.Nil(t, r["lat"])
	assert.Equal(t, json.Number("1.5"), r["lng"])
}

func TestRenameAndCopyNested(t *testing.T) {
	r := splash.Record{"id": json.Number("5"), "currency": map[string]any{"code": "USD"}}
	require.NoError(t, Rename("id", "ticket_type_id")(r))
	require.NoError(t, CopyNested("currency_code", "currency", "code")(r))
	require.NoError(t, CopyNested("currency_id", "currency", "id")(r))

	assert.NotContains(t, r, "id")
	assert.Equal(t, json.Number("5"), r["ticket_type_id"])
	assert.Equal(t, "USD", r["currency_code"])
	assert.Contains(t, r, "currency_id")
	assert.Nil(t, r["currency_id"])
}

func TestSumAndNonZero(t *testing.T) {
	r := splash.Record{
		"price":         json.Number("40"),
		"foreign_price": json.Number("2"),
		"total":         json.Number("80"),
		"ticket_order":  map[string]any{"amount_refunded": json.Number("0")},
	}
	require.NoError(t, Sum("unit_price", "price", "foreign_price")(r))
	require.NoError(t, Sum("total_price", "total", "foreign_total")(r))
	require.NoError(t, NonZero("is_refunded", "ticket_order", "amount_refunded")(r))

	assert.Equal(t, json.Number("42"), r["unit_price"])
	assert.Equal(t, json.Number("80"), r["total_price"])
	assert.Equal(t, false, r["is_refunded"])

	bad := splash.Record{"price": "forty"}
	assert.ErrorIs(t, Sum("unit_price", "price")(bad), ErrNotNumeric)
}

func TestObjectRef(t *testing.T) {
	ev := splash.Record{"event_id": int64(1)}
	require.NoError(t, ObjectRef()(ev))
	assert.Equal(t, "event", ev["object_type"])
	assert.Equal(t, int64(1), ev["object_id"])

	tt := splash.Record{"ticket_type_id": json.Number("9")}
	require.NoError(t, ObjectRef()(tt))
	assert.Equal(t, "ticket_type", tt["object_type"])
	assert.Equal(t, json.Number("9"), tt["object_id"])
}

func TestModelColumnsMatchGormSchema(t *testing.T) {
	cache := &sync.Map{}
	for _, m := range Models() {
		s, err := schema.Parse(m.New(), cache, schema.NamingStrategy{})
		require.NoError(t, err, m.Table)
		for _, col := range append(m.Columns(), ColumnSyncTime, ColumnDeleted) {
			_, ok := s.FieldsByDBName[col]
			assert.True(t, ok, "%s: column %s has no gorm field", m.Table, col)
		}
		_, ok := s.FieldsByDBName[m.Key]
		assert.True(t, ok, "%s: key column missing", m.Table)
	}
}

func TestAdopt(t *testing.T) {
	r := splash.Record{"id": json.Number("11")}
	require.NoError(t, Adopt("id", "custom_question_id")(r))
	assert.NotContains(t, r, "id")
	assert.Equal(t, json.Number("11"), r["custom_question_id"])

	kept := splash.Record{"id": json.Number("11"), "custom_question_id": json.Number("7")}
	require.NoError(t, Adopt("id", "custom_question_id")(kept))
	assert.NotContains(t, kept, "id")
	assert.Equal(t, json.Number("7"), kept["custom_question_id"])
}
