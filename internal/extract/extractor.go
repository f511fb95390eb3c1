package extract

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	obscontext "github.com/spyai-labs/etl-gcp-splash/internal/observability/context"
	obslogger "github.com/spyai-labs/etl-gcp-splash/internal/observability/logger"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/metrics"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// RecordFetcher is the paginated reader the extractor drives.
type RecordFetcher interface {
	Fetch(ctx context.Context, spec splash.FetchSpec, w syncwindow.Window) ([]splash.Record, error)
}

// WindowResolver yields the window for a mode and entity at the current time.
type WindowResolver interface {
	Current(mode syncwindow.Mode, entity syncwindow.Entity) (syncwindow.Window, error)
}

// family is the per-source strategy: paging defaults plus a flattener for one raw record.
type family struct {
	source     Source
	endpoint   string
	dateFields []string
	tables     []string
	tuning     func(mode syncwindow.Mode) config.FetchTuning
	params     func() map[string]string
	flattenOne func(raw splash.Record, id int64, out Collections)
}

func familyFor(s Source) (family, error) {
	switch s {
	case SourceEvent:
		return eventFamily, nil
	case SourceGroupContact:
		return groupContactFamily, nil
	default:
		return family{}, fmt.Errorf("%w: %q", ErrInvalidSource, s)
	}
}

// Tables lists the collections a source produces, in load order.
func Tables(s Source) ([]string, error) {
	f, err := familyFor(s)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), f.tables...), nil
}

// Flatten explodes raw top-level records into the source's collections. Records with a
// non-integer id, no readable date or a date outside w are returned as rejections.
// Every table of the source is present in the result, possibly empty.
func Flatten(s Source, raw []splash.Record, w syncwindow.Window) (Collections, []Rejection, error) {
	f, err := familyFor(s)
	if err != nil {
		return nil, nil, err
	}
	out := newCollections(f.tables)
	var rejected []Rejection
	for _, r := range raw {
		if r == nil {
			continue
		}
		id, rej := admit(r, f.dateFields, w)
		if rej != nil {
			rejected = append(rejected, *rej)
			continue
		}
		f.flattenOne(r, id, out)
	}
	return out, rejected, nil
}

func (f family) spec(t config.FetchTuning) splash.FetchSpec {
	params := map[string]string{}
	if t.Sort != "" {
		params["sort"] = t.Sort
	}
	for k, v := range indexed("viewGroups", t.ViewGroups) {
		params[k] = v
	}
	if f.params != nil {
		for k, v := range f.params() {
			params[k] = v
		}
	}
	return splash.FetchSpec{
		Endpoint:   f.endpoint,
		Params:     params,
		DateFields: append([]string(nil), f.dateFields...),
		PageStart:  splash.DefaultPageStart,
		PageStop:   t.PageStop,
		Limit:      t.Limit,
	}
}

func indexed(name string, values []string) map[string]string {
	out := make(map[string]string, len(values))
	for i, v := range values {
		out[name+"["+strconv.Itoa(i)+"]"] = v
	}
	return out
}

type Params struct {
	fx.In

	Fetcher    RecordFetcher
	Resolver   WindowResolver
	Overrides  *config.FetchOverridesHolder `optional:"true"`
	Log        *zap.Logger
	ETLMetrics *metrics.ETLMetrics `optional:"true"`
}

type Service struct {
	fetcher   RecordFetcher
	resolver  WindowResolver
	overrides *config.FetchOverridesHolder
	log       *zap.Logger
	metrics   *metrics.ETLMetrics
}

func New(p Params) *Service {
	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		fetcher:   p.Fetcher,
		resolver:  p.Resolver,
		overrides: p.Overrides,
		log:       log.Named("extract").With(zap.String("component", "extractor")),
		metrics:   p.ETLMetrics,
	}
}

// Spec is the fetch request for a source under mode, with file overrides applied.
func (s *Service) Spec(src Source, mode syncwindow.Mode) (splash.FetchSpec, error) {
	f, err := familyFor(src)
	if err != nil {
		return splash.FetchSpec{}, err
	}
	tuning := f.tuning(mode)
	if override := s.overrides.Get(string(src)); !isZeroTuning(override) {
		if err := mergo.Merge(&tuning, override, mergo.WithOverride); err != nil {
			return splash.FetchSpec{}, fmt.Errorf("merge fetch override for %s: %w", src, err)
		}
	}
	return f.spec(tuning), nil
}

func isZeroTuning(t config.FetchTuning) bool {
	return t.Limit == 0 && t.PageStop == 0 && t.Sort == "" && len(t.ViewGroups) == 0
}

// Extract resolves the window, fetches the source and flattens it.
func (s *Service) Extract(ctx context.Context, src Source, mode syncwindow.Mode) (Collections, error) {
	spec, err := s.Spec(src, mode)
	if err != nil {
		return nil, err
	}
	w, err := s.resolver.Current(mode, src.Entity())
	if err != nil {
		return nil, fmt.Errorf("resolve window for %s: %w", src, err)
	}

	ctx = obscontext.WithSource(ctx, string(src))
	log := obslogger.WithContext(ctx, s.log)
	log.Info("extract.source.start",
		zap.String("sync_mode", string(mode)),
		zap.String("endpoint", spec.Endpoint),
		zap.Time("start", w.Start),
		zap.Time("end", w.End),
		zap.Int("limit", spec.Limit),
		zap.Int("page_stop", spec.PageStop),
		zap.Any("params", spec.Params),
	)

	started := time.Now()
	raw, err := s.fetcher.Fetch(ctx, spec, w)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", spec.Endpoint, err)
	}
	log.Info("extract.source.fetched", zap.Int("records", len(raw)), zap.Duration("duration", time.Since(started)))

	out, rejected, err := Flatten(src, raw, w)
	if err != nil {
		return nil, err
	}
	for _, r := range rejected {
		fields := []zap.Field{zap.String("reason", r.Reason), zap.Any("id", r.ID)}
		if r.Err != nil {
			fields = append(fields, zap.Error(r.Err))
		}
		log.Error("extract.record.rejected", fields...)
	}
	s.metrics.AddRejections(string(src), "flatten", len(rejected))

	log.Info("extract.source.finish",
		zap.Int("rejected", len(rejected)),
		zap.Any("tables", sortedCounts(out)),
	)
	return out, nil
}

func sortedCounts(c Collections) []string {
	out := make([]string, 0, len(c))
	for name, n := range c.Counts() {
		out = append(out, name+"="+strconv.Itoa(n))
	}
	sort.Strings(out)
	return out
}
