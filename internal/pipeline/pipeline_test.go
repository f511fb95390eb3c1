package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/extract"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability/metrics"
	"github.com/spyai-labs/etl-gcp-splash/internal/pipeline"
	"github.com/spyai-labs/etl-gcp-splash/internal/pipeline/mocks"
	"github.com/spyai-labs/etl-gcp-splash/internal/ratelimit"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"github.com/spyai-labs/etl-gcp-splash/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	extractor   *mocks.MockExtractor
	transformer *mocks.MockTransformer
	loader      *mocks.MockLoader
	status      *mocks.MockStatusStore
	locker      *mocks.MockRunLocker
	pusher      *recordingPusher
	metrics     *metrics.ETLMetrics
	clock       *clock.FakeClock
}

type recordingPusher struct {
	gatherers []prometheus.Gatherer
}

func (p *recordingPusher) Push(_ context.Context, g prometheus.Gatherer) error {
	p.gatherers = append(p.gatherers, g)
	return nil
}

func newPipeline(t *testing.T, cfg config.Config) (*pipeline.Pipeline, *fixture) {
	t.Helper()
	ctrl := gomock.NewController(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &fixture{
		extractor:   mocks.NewMockExtractor(ctrl),
		transformer: mocks.NewMockTransformer(ctrl),
		loader:      mocks.NewMockLoader(ctrl),
		status:      mocks.NewMockStatusStore(ctrl),
		locker:      mocks.NewMockRunLocker(ctrl),
		pusher:      &recordingPusher{},
		metrics:     metrics.NewETLMetrics(prometheus.NewRegistry(), metrics.Config{}),
		clock:       clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)),
	}
	if cfg.LocalTimezone == "" {
		cfg.LocalTimezone = "Australia/Sydney"
	}
	if cfg.SyncMode == "" {
		cfg.SyncMode = string(syncwindow.ModeIncremental)
	}
	p, err := pipeline.New(pipeline.Params{
		Config:      cfg,
		Extractor:   f.extractor,
		Transformer: f.transformer,
		Loader:      f.loader,
		Status:      f.status,
		Locker:      f.locker,
		Pusher:      f.pusher,
		ETLMetrics:  f.metrics,
		GenID:       node,
		Clock:       f.clock,
		Log:         zap.NewNop(),
	})
	require.NoError(t, err)
	return p, f
}

func (f *fixture) unlocked() {
	f.locker.EXPECT().
		Acquire(gomock.Any(), "splashetl:run", gomock.Any()).
		Return(func() {}, nil)
}

func recordFor(t *testing.T, records []jobstatus.Record, source, object string) jobstatus.Record {
	t.Helper()
	for _, r := range records {
		if r.Source == source && r.Object == object {
			return r
		}
	}
	t.Fatalf("no status for %s/%s", source, object)
	return jobstatus.Record{}
}

func TestRunRecordsTablesAndSourceTotals(t *testing.T) {
	p, f := newPipeline(t, config.Config{})
	f.unlocked()

	collections := extract.Collections{"event": nil}
	events := transform.Table{Name: "event", Key: "id", Rows: []transform.Row{{"id": "1"}}}
	tickets := transform.Table{Name: "ticket_type", Key: "id", Rows: []transform.Row{{"id": "7"}}}
	empty := transform.Table{Name: "ticket_order_discount", Key: "id"}

	f.extractor.EXPECT().
		Extract(gomock.Any(), extract.SourceEvent, syncwindow.ModeHistoricalFull).
		Return(collections, nil)
	f.transformer.EXPECT().
		Transform(gomock.Any(), extract.SourceEvent, collections, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ extract.Source, _ extract.Collections, syncTime time.Time) ([]transform.Table, error) {
			assert.Equal(t, "Australia/Sydney", syncTime.Location().String())
			assert.Equal(t, 10, syncTime.Hour())
			return []transform.Table{events, tickets, empty}, nil
		})
	f.loader.EXPECT().
		LoadAndMerge(gomock.Any(), events, pipeline.MergeKey, true).
		Return(jobstatus.Stats{Loaded: 3, Merged: 2, Deleted: 1}, nil)
	f.loader.EXPECT().
		LoadAndMerge(gomock.Any(), tickets, pipeline.MergeKey, true).
		Return(jobstatus.Stats{}, errors.New("merge failed"))

	var saved []jobstatus.Record
	f.status.EXPECT().Save(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, records []jobstatus.Record) error {
			saved = records
			return nil
		})

	res, err := p.Run(context.Background(), pipeline.Request{
		RunID:   "run-1",
		Mode:    syncwindow.ModeHistoricalFull,
		Sources: []string{"event"},
	})
	require.NoError(t, err)
	require.Len(t, res.Records, 4)
	assert.Equal(t, res.Records, saved)

	skipped := recordFor(t, res.Records, "event", "ticket_order_discount")
	assert.Equal(t, jobstatus.StatusSuccess, skipped.Status)
	assert.Equal(t, jobstatus.Stats{}, skipped.Stats())
	assert.Equal(t, "run-1", res.Metadata.RunID)
	assert.True(t, res.Metadata.FullSync)

	ev := recordFor(t, res.Records, "event", "event")
	assert.Equal(t, jobstatus.StatusSuccess, ev.Status)
	assert.Equal(t, int64(3), ev.RecordsLoaded)

	tt := recordFor(t, res.Records, "event", "ticket_type")
	assert.Equal(t, jobstatus.StatusFailure, tt.Status)
	assert.Zero(t, tt.RecordsLoaded)
	assert.Equal(t, "merge failed", tt.Attributes["error"])

	all := recordFor(t, res.Records, "event", jobstatus.ObjectAll)
	assert.Equal(t, jobstatus.StatusSuccess, all.Status)
	assert.Equal(t, jobstatus.Stats{Loaded: 3, Merged: 2, Deleted: 1}, all.Stats())

	require.Len(t, f.pusher.gatherers, 1)
	families, err := f.pusher.gatherers[0].Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["splashetl_runs_total"])
}

func TestRunContinuesAfterSourceFailure(t *testing.T) {
	p, f := newPipeline(t, config.Config{})
	f.unlocked()

	f.extractor.EXPECT().
		Extract(gomock.Any(), extract.SourceEvent, syncwindow.ModeIncremental).
		Return(nil, errors.New("token rejected"))
	f.extractor.EXPECT().
		Extract(gomock.Any(), extract.SourceGroupContact, syncwindow.ModeIncremental).
		Return(extract.Collections{}, nil)
	f.transformer.EXPECT().
		Transform(gomock.Any(), extract.SourceGroupContact, gomock.Any(), gomock.Any()).
		Return(nil, nil)
	f.status.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	res, err := p.Run(context.Background(), pipeline.Request{Sources: []string{"event", "group_contact"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrSourceFailed)
	assert.NotEmpty(t, res.Metadata.RunID)
	assert.False(t, res.Metadata.FullSync)

	ev := recordFor(t, res.Records, "event", jobstatus.ObjectAll)
	assert.Equal(t, jobstatus.StatusFailure, ev.Status)
	assert.Contains(t, ev.Attributes["error"], "token rejected")

	gc := recordFor(t, res.Records, "group_contact", jobstatus.ObjectAll)
	assert.Equal(t, jobstatus.StatusSuccess, gc.Status)
}

func TestRunTransformFailureZeroesSource(t *testing.T) {
	p, f := newPipeline(t, config.Config{})
	f.unlocked()

	f.extractor.EXPECT().Extract(gomock.Any(), extract.SourceEvent, gomock.Any()).Return(extract.Collections{}, nil)
	f.transformer.EXPECT().
		Transform(gomock.Any(), extract.SourceEvent, gomock.Any(), gomock.Any()).
		Return(nil, transform.ErrInvalidShape)
	f.status.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)

	res, err := p.Run(context.Background(), pipeline.Request{Sources: []string{"event"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, transform.ErrInvalidShape)
	require.Len(t, res.Records, 1)
	assert.Equal(t, jobstatus.StatusFailure, res.Records[0].Status)
	assert.Equal(t, jobstatus.Stats{}, res.Records[0].Stats())
}

func TestRunSaveFailureIsReturned(t *testing.T) {
	p, f := newPipeline(t, config.Config{})
	f.unlocked()

	f.extractor.EXPECT().Extract(gomock.Any(), extract.SourceEvent, gomock.Any()).Return(extract.Collections{}, nil)
	f.transformer.EXPECT().Transform(gomock.Any(), extract.SourceEvent, gomock.Any(), gomock.Any()).Return(nil, nil)
	saveErr := errors.New("db down")
	f.status.EXPECT().Save(gomock.Any(), gomock.Any()).Return(saveErr)

	_, err := p.Run(context.Background(), pipeline.Request{Sources: []string{"event"}})
	assert.ErrorIs(t, err, saveErr)
}

func TestRunLockHeld(t *testing.T) {
	p, f := newPipeline(t, config.Config{})
	f.locker.EXPECT().
		Acquire(gomock.Any(), "splashetl:run", gomock.Any()).
		Return(nil, ratelimit.ErrLockHeld)

	_, err := p.Run(context.Background(), pipeline.Request{Sources: []string{"event"}})
	assert.ErrorIs(t, err, pipeline.ErrRunInProgress)
	assert.Empty(t, f.pusher.gatherers)
}

func TestResolveDefaults(t *testing.T) {
	p, _ := newPipeline(t, config.Config{
		SyncMode: string(syncwindow.ModeIncrementalWindow),
		Sources:  []string{"group_contact"},
	})

	req, sources, err := p.Resolve(pipeline.Request{})
	require.NoError(t, err)
	assert.Equal(t, syncwindow.ModeIncrementalWindow, req.Mode)
	assert.Equal(t, []extract.Source{extract.SourceGroupContact}, sources)
	assert.Len(t, req.RunID, 26)
}

func TestResolveRejectsBadInput(t *testing.T) {
	p, _ := newPipeline(t, config.Config{})

	_, _, err := p.Resolve(pipeline.Request{Mode: "nightly"})
	assert.ErrorIs(t, err, config.ErrInvalidSyncMode)

	_, _, err = p.Resolve(pipeline.Request{Sources: []string{"event", "invoices"}})
	assert.ErrorIs(t, err, extract.ErrInvalidSource)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := pipeline.New(pipeline.Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, pipeline.ErrInvalidConfig)
}
