// Package pipeline runs extract, transform and load for each configured source and
// records one status per table and per source.
package pipeline

//go:generate mockgen -source=pipeline.go -destination=./mocks/mock_pipeline.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/extract"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobmetrics"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	obscontext "github.com/spyai-labs/etl-gcp-splash/internal/observability/context"
	obslogger "github.com/spyai-labs/etl-gcp-splash/internal/observability/logger"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/metrics"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/tracing"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"github.com/spyai-labs/etl-gcp-splash/internal/transform"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidConfig = errors.New("invalid_pipeline_config")
	ErrRunInProgress = errors.New("run_in_progress")
	ErrSourceFailed  = errors.New("source_failed")
)

const (
	// MergeKey is the key every table merges on.
	MergeKey = "id"

	runLockKey = "splashetl:run"
	runLockTTL = 2 * time.Hour
)

type Extractor interface {
	Extract(ctx context.Context, src extract.Source, mode syncwindow.Mode) (extract.Collections, error)
}

type Transformer interface {
	Transform(ctx context.Context, src extract.Source, collections extract.Collections, syncTime time.Time) ([]transform.Table, error)
}

type Loader interface {
	LoadAndMerge(ctx context.Context, table transform.Table, key string, fullSync bool) (jobstatus.Stats, error)
}

type StatusStore interface {
	Save(ctx context.Context, records []jobstatus.Record) error
}

// RunLocker keeps two runs from writing the same tables at once.
type RunLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// Request selects what a run does. Zero values fall back to the configuration.
type Request struct {
	RunID   string
	Mode    syncwindow.Mode
	Sources []string
}

// Result is what a run recorded. Records holds every status, including failures.
type Result struct {
	Metadata jobstatus.Metadata
	Records  []jobstatus.Record
}

type Params struct {
	fx.In

	Config      config.Config
	Extractor   Extractor
	Transformer Transformer
	Loader      Loader
	Status      StatusStore
	Locker      RunLocker           `optional:"true"`
	Pusher      jobmetrics.Pusher   `optional:"true"`
	ETLMetrics  *metrics.ETLMetrics `optional:"true"`
	GenID       *snowflake.Node
	Clock       clock.Clock
	Log         *zap.Logger
}

type Pipeline struct {
	cfg         config.Config
	extractor   Extractor
	transformer Transformer
	loader      Loader
	status      StatusStore
	locker      RunLocker
	pusher      jobmetrics.Pusher
	metrics     *metrics.ETLMetrics
	genID       *snowflake.Node
	clock       clock.Clock
	localTZ     *time.Location
	tracer      trace.Tracer
	log         *zap.Logger
}

func New(p Params) (*Pipeline, error) {
	if p.Extractor == nil || p.Transformer == nil || p.Loader == nil || p.Status == nil || p.GenID == nil || p.Clock == nil || p.Log == nil {
		return nil, ErrInvalidConfig
	}
	loc, err := time.LoadLocation(p.Config.LocalTimezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidTimezone, err)
	}
	return &Pipeline{
		cfg:         p.Config,
		extractor:   p.Extractor,
		transformer: p.Transformer,
		loader:      p.Loader,
		status:      p.Status,
		locker:      p.Locker,
		pusher:      p.Pusher,
		metrics:     p.ETLMetrics,
		genID:       p.GenID,
		clock:       p.Clock,
		localTZ:     loc,
		tracer:      otel.Tracer("splashetl/pipeline"),
		log:         p.Log.Named("pipeline").With(zap.String("component", "pipeline")),
	}, nil
}

// NewRunID returns a sortable run identifier.
func NewRunID() string {
	return strings.ToLower(ulid.Make().String())
}

// Resolve applies configuration defaults to req and validates it. Any invalid source
// fails the whole request before anything runs.
func (p *Pipeline) Resolve(req Request) (Request, []extract.Source, error) {
	if req.Mode == "" {
		req.Mode = syncwindow.Mode(p.cfg.SyncMode)
	}
	mode, err := syncwindow.ParseMode(string(req.Mode))
	if err != nil {
		return req, nil, fmt.Errorf("%w: %v", config.ErrInvalidSyncMode, err)
	}
	req.Mode = mode
	if len(req.Sources) == 0 {
		req.Sources = p.cfg.Sources
	}
	sources, err := extract.ParseSources(req.Sources)
	if err != nil {
		return req, nil, err
	}
	if strings.TrimSpace(req.RunID) == "" {
		req.RunID = NewRunID()
	}
	return req, sources, nil
}

// Run executes one full pass over the requested sources. Source failures are recorded
// and joined into the returned error; the other sources still run.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	req, sources, err := p.Resolve(req)
	if err != nil {
		return Result{}, err
	}

	started := p.clock.Now()
	meta := jobstatus.NewMetadata(req.RunID, started.In(p.localTZ), req.Mode, p.cfg.LogBucket)
	ledger := jobstatus.NewLedger(meta, p.genID, p.clock)

	ctx = obscontext.WithRunID(ctx, meta.RunID)
	ctx, span := p.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run_id", meta.RunID),
		attribute.String("sync_mode", string(meta.SyncMode)),
	))
	defer span.End()
	log := obslogger.WithContext(ctx, p.log).With(zap.String("sync_mode", string(meta.SyncMode)))

	if p.locker != nil {
		release, err := p.locker.Acquire(ctx, runLockKey, runLockTTL)
		if err != nil {
			log.Warn("pipeline.run.locked", zap.Error(err))
			return Result{Metadata: meta}, fmt.Errorf("%w: %v", ErrRunInProgress, err)
		}
		defer release()
	}

	log.Info("pipeline.run.start",
		zap.Bool("full_sync", meta.FullSync),
		zap.String("log_path", meta.LogPath),
		zap.Strings("sources", sourceNames(sources)),
	)

	var runErr error
	for _, src := range sources {
		if err := p.runSource(ctx, ledger, src); err != nil {
			runErr = errors.Join(runErr, err)
		}
	}

	records := ledger.Records()
	if err := p.status.Save(ctx, records); err != nil {
		log.Error("pipeline.status.save_failed", zap.Error(err))
		runErr = errors.Join(runErr, err)
	}

	status := metrics.RunStatusSuccess
	if runErr != nil || ledger.Failed() {
		status = metrics.RunStatusFailure
	}
	duration := p.clock.Now().Sub(started)
	p.metrics.ObserveRun(string(meta.SyncMode), status, duration)
	p.pushMetrics(ctx, log)

	fields := []zap.Field{
		zap.String("status", status),
		zap.Int("records", len(records)),
		zap.Int64("duration_ms", duration.Milliseconds()),
	}
	if runErr != nil {
		span.SetStatus(codes.Error, tracing.SafeError(runErr).Error())
		log.Warn("pipeline.run.finish", append(fields, zap.Error(runErr))...)
	} else {
		log.Info("pipeline.run.finish", fields...)
	}
	return Result{Metadata: meta, Records: records}, runErr
}

// runSource extracts, transforms and loads one source. A table that fails to load is
// recorded and skipped; an extract or transform failure fails the source.
func (p *Pipeline) runSource(ctx context.Context, ledger *jobstatus.Ledger, src extract.Source) (err error) {
	meta := ledger.Metadata()
	started := p.clock.Now()
	ctx = obscontext.WithSource(ctx, string(src))
	ctx, span := p.tracer.Start(ctx, "pipeline.source", trace.WithAttributes(attribute.String("source", string(src))))
	log := obslogger.WithContext(ctx, p.log)

	var total jobstatus.Stats
	defer func() {
		status := jobstatus.StatusSuccess
		if err != nil {
			status = jobstatus.StatusFailure
			total = jobstatus.Stats{}
			p.metrics.IncSourceError(string(src), err)
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, "source failed")
			log.Error("pipeline.source.failed", zap.Error(err))
		}
		ledger.Add(string(src), jobstatus.ObjectAll, status, total, err)
		p.metrics.ObserveSource(string(src), p.clock.Now().Sub(started), err != nil, p.clock.Now())
		log.Info("pipeline.source.finish",
			zap.String("status", string(status)),
			zap.Int64("records_loaded", total.Loaded),
			zap.Int64("records_merged", total.Merged),
			zap.Int64("records_deleted", total.Deleted),
		)
		span.End()
	}()

	log.Info("pipeline.source.start")
	collections, err := p.extractor.Extract(ctx, src, meta.SyncMode)
	if err != nil {
		return fmt.Errorf("%w: %s: extract: %w", ErrSourceFailed, src, err)
	}
	tables, err := p.transformer.Transform(ctx, src, collections, meta.RunTime)
	if err != nil {
		return fmt.Errorf("%w: %s: transform: %w", ErrSourceFailed, src, err)
	}

	for _, table := range tables {
		total = total.Add(p.loadTable(ctx, ledger, src, table))
	}
	return nil
}

func (p *Pipeline) loadTable(ctx context.Context, ledger *jobstatus.Ledger, src extract.Source, table transform.Table) jobstatus.Stats {
	meta := ledger.Metadata()
	ctx = obscontext.WithEntity(ctx, table.Name)
	ctx, span := p.tracer.Start(ctx, "pipeline.table", trace.WithAttributes(
		attribute.String("table", table.Name),
		attribute.Int("rows", len(table.Rows)),
	))
	defer span.End()

	if len(table.Rows) == 0 {
		ledger.Add(string(src), table.Name, jobstatus.StatusSuccess, jobstatus.Stats{}, nil)
		return jobstatus.Stats{}
	}

	stats, err := p.loader.LoadAndMerge(ctx, table, MergeKey, meta.FullSync)
	if err != nil {
		p.metrics.IncTableFailure(table.Name, err)
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "load failed")
		obslogger.WithContext(ctx, p.log).Error("pipeline.table.failed", zap.Error(err))
		ledger.Add(string(src), table.Name, jobstatus.StatusFailure, jobstatus.Stats{}, err)
		return jobstatus.Stats{}
	}
	p.metrics.AddTableStats(table.Name, stats.Loaded, stats.Merged, stats.Deleted)
	ledger.Add(string(src), table.Name, jobstatus.StatusSuccess, stats, nil)
	return stats
}

func (p *Pipeline) pushMetrics(ctx context.Context, log *zap.Logger) {
	if p.pusher == nil || p.metrics == nil {
		return
	}
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	var gatherer prometheus.Gatherer = p.metrics.Gatherer()
	if err := p.pusher.Push(pushCtx, gatherer); err != nil {
		log.Warn("pipeline.metrics.push_failed", zap.Error(err))
	}
}

func sourceNames(sources []extract.Source) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = string(s)
	}
	return out
}
