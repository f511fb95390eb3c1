package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/spyai-labs/etl-gcp-splash/internal/extract"
	obslogger "github.com/spyai-labs/etl-gcp-splash/internal/observability/logger"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/metrics"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Table is a load-ready, deduplicated result for one model.
type Table struct {
	Name  string
	Key   string
	Model *Model
	Rows  []Row
}

// Columns are the model columns followed by the system columns.
func (t Table) Columns() []string {
	return append(t.Model.Columns(), ColumnSyncTime, ColumnDeleted)
}

// Rejected is a record dropped during normalization or validation.
type Rejected struct {
	ID  string
	Err error
}

// apply runs the steps and validation over records. Exact duplicate rows keep their first
// occurrence, then rows sharing an identity keep the last one.
func (t Transformer) apply(records []splash.Record, dec *decoder) ([]Row, []Rejected) {
	rows := make([]Row, 0, len(records))
	var rejected []Rejected
	for _, rec := range records {
		row, err := t.applyOne(rec, dec)
		if err != nil {
			rejected = append(rejected, Rejected{ID: recordID(rec, row), Err: err})
			continue
		}
		rows = append(rows, row)
	}
	return dedupByIdentity(t.Model, dropExactDuplicates(t.Model, rows)), rejected
}

func (t Transformer) applyOne(rec splash.Record, dec *decoder) (Row, error) {
	r := splash.Copy(rec)
	for _, step := range t.Steps {
		if err := step(r); err != nil {
			return nil, err
		}
	}
	for _, s := range t.Model.Synthetic {
		if v, ok := r[s.Field]; ok && v != nil {
			continue
		}
		key, err := SyntheticKey(t.Model.Table, r, s.Basis)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Field, err)
		}
		r[s.Field] = key
	}
	return dec.decode(t.Model, r)
}

func recordID(rec splash.Record, row Row) string {
	if row != nil {
		return keyString(row["id"])
	}
	return keyString(rec["id"])
}

func dropExactDuplicates(m *Model, rows []Row) []Row {
	seen := make(map[string]struct{}, len(rows))
	out := rows[:0]
	cols := m.Columns()
	for _, r := range rows {
		sig := rowSignature(cols, r)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		out = append(out, r)
	}
	return out
}

func rowSignature(cols []string, r Row) string {
	b := make([]byte, 0, 256)
	for _, c := range cols {
		b = fmt.Appendf(b, "%T:%v\x1f", r[c], r[c])
	}
	return string(b)
}

// dedupByIdentity keeps the last row per identity, in the order of those last rows.
func dedupByIdentity(m *Model, rows []Row) []Row {
	last := make(map[string]int, len(rows))
	for i, r := range rows {
		last[m.identity(r)] = i
	}
	if len(last) == len(rows) {
		return rows
	}
	out := make([]Row, 0, len(last))
	for i, r := range rows {
		if last[m.identity(r)] == i {
			out = append(out, r)
		}
	}
	return out
}

type Params struct {
	fx.In

	Resolver   *syncwindow.Resolver `optional:"true"`
	Log        *zap.Logger
	ETLMetrics *metrics.ETLMetrics `optional:"true"`
}

type Service struct {
	registry Registry
	dec      *decoder
	log      *zap.Logger
	metrics  *metrics.ETLMetrics
}

func New(p Params) *Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	var loc *time.Location
	if p.Resolver != nil {
		loc = p.Resolver.SourceLocation()
	}
	return &Service{
		registry: DefaultRegistry(),
		dec:      newDecoder(loc),
		log:      log.Named("transform").With(zap.String("component", "transformer")),
		metrics:  p.ETLMetrics,
	}
}

// Transform builds the load-ready tables of one source. Tables of the same model coming
// from different collections are concatenated and deduplicated on the key, last wins.
// Every row is stamped with syncTime and _deleted=false. Empty tables are omitted.
func (s *Service) Transform(ctx context.Context, src extract.Source, collections extract.Collections, syncTime time.Time) ([]Table, error) {
	entries, ok := s.registry[src]
	if !ok {
		return nil, fmt.Errorf("%w: %q", extract.ErrInvalidSource, src)
	}
	order, err := extract.Tables(src)
	if err != nil {
		return nil, err
	}
	log := obslogger.WithContext(ctx, s.log)

	var (
		tables []Table
		index  = map[string]int{}
	)
	for _, name := range order {
		transformers, ok := entries[name]
		if !ok {
			if len(collections[name]) > 0 {
				log.Debug("transform.collection.skipped", zap.String("collection", name), zap.Int("records", len(collections[name])))
			}
			continue
		}
		for _, tf := range transformers {
			rows, rejected := tf.apply(collections[name], s.dec)
			for _, r := range rejected {
				log.Warn("transform.record.invalid",
					zap.String("collection", name),
					zap.String("model", tf.Model.Table),
					zap.String("id", r.ID),
					zap.Error(r.Err),
				)
			}
			s.metrics.AddRejections(string(src), "transform", len(rejected))
			log.Info("transform.table.done",
				zap.String("collection", name),
				zap.String("model", tf.Model.Table),
				zap.Int("records", len(collections[name])),
				zap.Int("rows", len(rows)),
				zap.Int("rejected", len(rejected)),
			)
			if len(rows) == 0 {
				continue
			}
			stampSystem(rows, syncTime)

			if i, seen := index[tf.Model.Table]; seen {
				merged := append(tables[i].Rows, rows...)
				tables[i].Rows = dedupByIdentity(tables[i].Model, merged)
				continue
			}
			index[tf.Model.Table] = len(tables)
			tables = append(tables, Table{Name: tf.Model.Table, Key: tf.Model.Key, Model: tf.Model, Rows: rows})
		}
	}
	return tables, nil
}

func stampSystem(rows []Row, syncTime time.Time) {
	for _, r := range rows {
		r[ColumnSyncTime] = syncTime
		r[ColumnDeleted] = false
	}
}
