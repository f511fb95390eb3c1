package loader

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	"github.com/spyai-labs/etl-gcp-splash/internal/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type widget struct {
	transform.System `mapstructure:"-"`
	ID               int64   `gorm:"column:id;primaryKey;autoIncrement:false" mapstructure:"id"`
	Name             string  `gorm:"column:name" mapstructure:"name"`
	Note             *string `gorm:"column:note" mapstructure:"note"`
}

var widgetModel = transform.NewModel("widget", widget{})

func newTestLoader(t *testing.T) (*Loader, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	l, err := New(Params{DB: db, Config: config.Config{}, Log: zap.NewNop()})
	require.NoError(t, err)
	l.sleep = func(context.Context, time.Duration) error { return nil }
	return l, db
}

func widgets(syncTime time.Time, rows ...transform.Row) transform.Table {
	for _, r := range rows {
		r[transform.ColumnSyncTime] = syncTime
		r[transform.ColumnDeleted] = false
		if _, ok := r["note"]; !ok {
			r["note"] = nil
		}
	}
	return transform.Table{Name: "widget", Key: "id", Model: widgetModel, Rows: rows}
}

func readWidgets(t *testing.T, db *gorm.DB) []widget {
	t.Helper()
	var out []widget
	require.NoError(t, db.Table("widget").Order("id").Find(&out).Error)
	return out
}

func TestIdentifier(t *testing.T) {
	id, err := Identifier("Event Ticket-Type")
	require.NoError(t, err)
	assert.Equal(t, "event_ticket_type", id)

	id, err = Identifier("group_contact_event_rsvp")
	require.NoError(t, err)
	assert.Equal(t, "group_contact_event_rsvp", id)

	_, err = Identifier("!!!")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestStagingName(t *testing.T) {
	l, _ := newTestLoader(t)
	assert.Equal(t, "_stg_event", l.StagingName("event"))

	l.cfg.StagingPrefix, l.cfg.StagingSuffix = "stg_", "_tmp"
	assert.Equal(t, "stg_event_tmp", l.StagingName("event"))
}

func TestLoadAndMergeEmptyTable(t *testing.T) {
	l, db := newTestLoader(t)
	stats, err := l.LoadAndMerge(context.Background(), widgets(time.Now()), "id", true)
	require.NoError(t, err)
	assert.Equal(t, jobstatus.Stats{}, stats)
	assert.False(t, db.Migrator().HasTable("widget"))
	assert.False(t, db.Migrator().HasTable("_stg_widget"))
}

func TestLoadAndMergeUpsertAndSoftDelete(t *testing.T) {
	l, db := newTestLoader(t)
	ctx := context.Background()
	first := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	stats, err := l.LoadAndMerge(ctx, widgets(first,
		transform.Row{"id": int64(1), "name": "one"},
		transform.Row{"id": int64(2), "name": "two", "note": "keep"},
	), "id", false)
	require.NoError(t, err)
	assert.Equal(t, jobstatus.Stats{Loaded: 2, Merged: 2}, stats)
	require.Len(t, readWidgets(t, db), 2)

	second := first.Add(24 * time.Hour)
	stats, err = l.LoadAndMerge(ctx, widgets(second,
		transform.Row{"id": int64(2), "name": "two v2"},
		transform.Row{"id": int64(3), "name": "three"},
	), "id", true)
	require.NoError(t, err)
	assert.Equal(t, jobstatus.Stats{Loaded: 2, Merged: 2, Deleted: 1}, stats)

	got := readWidgets(t, db)
	require.Len(t, got, 3)
	assert.True(t, got[0].SoftDeleted)
	assert.Equal(t, "one", got[0].Name)
	assert.False(t, got[1].SoftDeleted)
	assert.Equal(t, "two v2", got[1].Name)
	assert.Nil(t, got[1].Note)
	assert.True(t, got[1].SyncTime.Equal(second))
	assert.Equal(t, "three", got[2].Name)

	// Rows already flagged are not counted again.
	stats, err = l.LoadAndMerge(ctx, widgets(second,
		transform.Row{"id": int64(2), "name": "two v2"},
		transform.Row{"id": int64(3), "name": "three"},
	), "id", true)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Deleted)
}

func TestLoadAndMergeIncrementalKeepsMissingRows(t *testing.T) {
	l, db := newTestLoader(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := l.LoadAndMerge(ctx, widgets(now, transform.Row{"id": int64(1), "name": "one"}), "id", false)
	require.NoError(t, err)
	stats, err := l.LoadAndMerge(ctx, widgets(now, transform.Row{"id": int64(2), "name": "two"}), "id", false)
	require.NoError(t, err)
	assert.Equal(t, jobstatus.Stats{Loaded: 1, Merged: 1}, stats)

	for _, w := range readWidgets(t, db) {
		assert.False(t, w.SoftDeleted)
	}
}

func TestLoadAndMergeUnknownKey(t *testing.T) {
	l, _ := newTestLoader(t)
	_, err := l.LoadAndMerge(context.Background(), widgets(time.Now(), transform.Row{"id": int64(1), "name": "x"}), "uuid", false)
	assert.ErrorIs(t, err, ErrUnknownKey)
}

func TestNewRequiresDB(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
