package jobstatus

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
	"gorm.io/datatypes"
)

// Ledger accumulates the status records of one run. It is safe for concurrent use.
type Ledger struct {
	meta  Metadata
	genID *snowflake.Node
	clock clock.Clock

	mu      sync.Mutex
	records []Record
}

func NewLedger(meta Metadata, genID *snowflake.Node, clk clock.Clock) *Ledger {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Ledger{meta: meta, genID: genID, clock: clk}
}

func (l *Ledger) Metadata() Metadata {
	return l.meta
}

// Add appends a record for object of source. A non-nil cause is kept under
// attributes.error.
func (l *Ledger) Add(source, object string, status Status, stats Stats, cause error) Record {
	rec := Record{
		RunID:          l.meta.RunID,
		RunTime:        l.meta.RunTime,
		SyncMode:       string(l.meta.SyncMode),
		LogPath:        l.meta.LogPath,
		Source:         source,
		Object:         object,
		Status:         status,
		Timestamp:      l.now(),
		RecordsLoaded:  stats.Loaded,
		RecordsMerged:  stats.Merged,
		RecordsDeleted: stats.Deleted,
		Attributes:     datatypes.JSONMap{"full_sync": l.meta.FullSync},
	}
	if cause != nil {
		rec.Attributes["error"] = cause.Error()
	}
	if l.genID != nil {
		rec.ID = l.genID.Generate()
	}

	l.mu.Lock()
	l.records = append(l.records, rec)
	l.mu.Unlock()
	return rec
}

func (l *Ledger) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

// Failed reports whether any record has status failure.
func (l *Ledger) Failed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.records {
		if r.Status == StatusFailure {
			return true
		}
	}
	return false
}

func (l *Ledger) now() time.Time {
	now := l.clock.Now()
	if loc := l.meta.RunTime.Location(); loc != nil {
		now = now.In(loc)
	}
	return now
}
