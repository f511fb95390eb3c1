package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spyai-labs/etl-gcp-splash/pkg/db"
	"gorm.io/gorm"
)

const (
	ReasonDeadlineExceeded     = "deadline_exceeded"
	ReasonDBLockTimeout        = "db_lock_timeout"
	ReasonSerializationFailure = "serialization_failure"
	ReasonUniqueViolation      = "unique_violation"
	ReasonDB                   = "db"
	ReasonUnknown              = "unknown"
)

const (
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"

	PageOutcomeProcessed = "processed"
	PageOutcomeSkipped   = "skipped"
)

// Reasoner lets domain errors name their own metric reason (auth, upstream, validation, ...).
type Reasoner interface {
	MetricReason() string
}

// ETLMetrics captures batch health signals. Batch runs push these at exit.
type ETLMetrics struct {
	gatherer prometheus.Gatherer

	runs           *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	sourceDuration *prometheus.HistogramVec
	sourceErrors   *prometheus.CounterVec
	lastSuccess    *prometheus.GaugeVec
	loaded         *prometheus.CounterVec
	merged         *prometheus.CounterVec
	deleted        *prometheus.CounterVec
	tableFailures  *prometheus.CounterVec
	fetchPages     *prometheus.CounterVec
	fetchRecords   *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	rateLimitWaits *prometheus.CounterVec
}

var (
	etlMetricsOnce sync.Once
	etlMetrics     *ETLMetrics
)

// ETL returns the singleton metrics registered on the default registry.
func ETL() *ETLMetrics {
	return ETLWithConfig(Config{})
}

// ETLWithConfig returns the singleton using config labels on first use.
func ETLWithConfig(cfg Config) *ETLMetrics {
	etlMetricsOnce.Do(func() {
		etlMetrics = newETLMetrics(prometheus.DefaultRegisterer, prometheus.DefaultGatherer, cfg)
	})
	return etlMetrics
}

// ResetETLMetricsForTest resets the singleton for tests.
func ResetETLMetricsForTest() {
	etlMetricsOnce = sync.Once{}
	etlMetrics = nil
}

// NewETLMetrics registers a fresh set of collectors on registry.
func NewETLMetrics(registry *prometheus.Registry, cfg Config) *ETLMetrics {
	return newETLMetrics(registry, registry, cfg)
}

func newETLMetrics(registerer prometheus.Registerer, gatherer prometheus.Gatherer, cfg Config) *ETLMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "splashetl"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_runs_total",
		Help:        "Pipeline runs by sync mode and outcome.",
		ConstLabels: constLabels,
	}, []string{"sync_mode", "status"})
	runDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "splashetl_run_duration_seconds",
		Help:        "Wall time of a full pipeline run.",
		Buckets:     []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200, 1800, 3600, 7200},
		ConstLabels: constLabels,
	}, []string{"sync_mode"})
	sourceDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "splashetl_source_duration_seconds",
		Help:        "Extract, transform and load time per source.",
		Buckets:     []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		ConstLabels: constLabels,
	}, []string{"source"})
	sourceErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_source_errors_total",
		Help:        "Source failures by low-cardinality reason.",
		ConstLabels: constLabels,
	}, []string{"source", "reason"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name:        "splashetl_source_last_success_timestamp_seconds",
		Help:        "Unix time of the last source run without table failures.",
		ConstLabels: constLabels,
	}, []string{"source"})
	loaded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_records_loaded_total",
		Help:        "Rows written to staging tables.",
		ConstLabels: constLabels,
	}, []string{"table"})
	merged := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_records_merged_total",
		Help:        "Rows updated or inserted into target tables.",
		ConstLabels: constLabels,
	}, []string{"table"})
	deleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_records_deleted_total",
		Help:        "Rows soft deleted by full syncs.",
		ConstLabels: constLabels,
	}, []string{"table"})
	tableFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_table_failures_total",
		Help:        "Table load failures by reason.",
		ConstLabels: constLabels,
	}, []string{"table", "reason"})
	fetchPages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_fetch_pages_total",
		Help:        "Upstream pages fetched by outcome.",
		ConstLabels: constLabels,
	}, []string{"endpoint", "outcome"})
	fetchRecords := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_fetch_records_total",
		Help:        "Upstream records kept after the window filter.",
		ConstLabels: constLabels,
	}, []string{"endpoint"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_records_rejected_total",
		Help:        "Records dropped during flattening or validation.",
		ConstLabels: constLabels,
	}, []string{"source", "stage"})
	rateLimitWaits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "splashetl_rate_limit_waits_total",
		Help:        "Upstream 429 responses that forced a reset wait.",
		ConstLabels: constLabels,
	}, []string{"endpoint"})

	registerer.MustRegister(
		runs,
		runDuration,
		sourceDuration,
		sourceErrors,
		lastSuccess,
		loaded,
		merged,
		deleted,
		tableFailures,
		fetchPages,
		fetchRecords,
		rejections,
		rateLimitWaits,
	)

	return &ETLMetrics{
		gatherer:       gatherer,
		runs:           runs,
		runDuration:    runDuration,
		sourceDuration: sourceDuration,
		sourceErrors:   sourceErrors,
		lastSuccess:    lastSuccess,
		loaded:         loaded,
		merged:         merged,
		deleted:        deleted,
		tableFailures:  tableFailures,
		fetchPages:     fetchPages,
		fetchRecords:   fetchRecords,
		rejections:     rejections,
		rateLimitWaits: rateLimitWaits,
	}
}

// Gatherer returns the registry the collectors live on, for pushing.
func (m *ETLMetrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return nil
	}
	return m.gatherer
}

func (m *ETLMetrics) ObserveRun(syncMode, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(syncMode, status).Inc()
	m.runDuration.WithLabelValues(syncMode).Observe(duration.Seconds())
}

func (m *ETLMetrics) ObserveSource(source string, duration time.Duration, failed bool, at time.Time) {
	if m == nil {
		return
	}
	m.sourceDuration.WithLabelValues(source).Observe(duration.Seconds())
	if !failed {
		m.lastSuccess.WithLabelValues(source).Set(float64(at.Unix()))
	}
}

func (m *ETLMetrics) IncSourceError(source string, err error) {
	if m == nil || err == nil {
		return
	}
	m.sourceErrors.WithLabelValues(source, ClassifyReason(err)).Inc()
}

// AddTableStats adds loader counts for a table. Zero counts are skipped.
func (m *ETLMetrics) AddTableStats(table string, loaded, merged, deleted int64) {
	if m == nil {
		return
	}
	if loaded > 0 {
		m.loaded.WithLabelValues(table).Add(float64(loaded))
	}
	if merged > 0 {
		m.merged.WithLabelValues(table).Add(float64(merged))
	}
	if deleted > 0 {
		m.deleted.WithLabelValues(table).Add(float64(deleted))
	}
}

func (m *ETLMetrics) IncTableFailure(table string, err error) {
	if m == nil || err == nil {
		return
	}
	m.tableFailures.WithLabelValues(table, ClassifyReason(err)).Inc()
}

func (m *ETLMetrics) IncFetchPage(endpoint, outcome string) {
	if m == nil {
		return
	}
	m.fetchPages.WithLabelValues(endpoint, outcome).Inc()
}

func (m *ETLMetrics) AddFetchRecords(endpoint string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.fetchRecords.WithLabelValues(endpoint).Add(float64(count))
}

func (m *ETLMetrics) AddRejections(source, stage string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rejections.WithLabelValues(source, stage).Add(float64(count))
}

func (m *ETLMetrics) IncRateLimitWait(endpoint string) {
	if m == nil {
		return
	}
	m.rateLimitWaits.WithLabelValues(endpoint).Inc()
}

// ClassifyReason maps errors to low-cardinality reasons.
func ClassifyReason(err error) string {
	if err == nil {
		return ReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ReasonDeadlineExceeded
	}
	var r Reasoner
	if errors.As(err, &r) {
		if reason := strings.TrimSpace(r.MetricReason()); reason != "" {
			return reason
		}
	}
	if hasPGCode(err, "55P03") {
		return ReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return ReasonSerializationFailure
	}
	if hasPGCode(err, "23505") || db.IsDuplicateKeyErr(err) {
		return ReasonUniqueViolation
	}
	if isDBError(err) {
		return ReasonDB
	}
	return ReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func isDBError(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false
	}
	if errors.Is(err, gorm.ErrInvalidDB) ||
		errors.Is(err, gorm.ErrInvalidTransaction) ||
		errors.Is(err, gorm.ErrInvalidField) ||
		errors.Is(err, gorm.ErrInvalidData) ||
		errors.Is(err, gorm.ErrMissingWhereClause) ||
		errors.Is(err, gorm.ErrUnsupportedDriver) ||
		errors.Is(err, gorm.ErrInvalidValue) ||
		errors.Is(err, gorm.ErrNotImplemented) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr)
}
