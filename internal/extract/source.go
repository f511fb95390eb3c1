// Package extract pulls one source family from Splash and explodes each nested record into
// flat collections joined by foreign-key columns.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
)

type Source string

const (
	SourceEvent        Source = "event"
	SourceGroupContact Source = "group_contact"
)

var DefaultSources = []Source{SourceEvent, SourceGroupContact}

var ErrInvalidSource = errors.New("invalid_source")

func ParseSource(raw string) (Source, error) {
	switch s := Source(strings.ToLower(strings.TrimSpace(raw))); s {
	case SourceEvent, SourceGroupContact:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSource, raw)
	}
}

// ParseSources validates a configured source list. An empty list means every source.
// Duplicates are dropped, order is kept.
func ParseSources(raw []string) ([]Source, error) {
	if len(raw) == 0 {
		return append([]Source(nil), DefaultSources...), nil
	}
	seen := make(map[Source]struct{}, len(raw))
	out := make([]Source, 0, len(raw))
	for _, r := range raw {
		s, err := ParseSource(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out, nil
}

// Entity is the lookback bucket the source's window is drawn from.
func (s Source) Entity() syncwindow.Entity {
	if s == SourceGroupContact {
		return syncwindow.EntityGroupContact
	}
	return syncwindow.EntityEvent
}

// Collections maps a table name to its flat records.
type Collections map[string][]splash.Record

func newCollections(tables []string) Collections {
	out := make(Collections, len(tables))
	for _, t := range tables {
		out[t] = []splash.Record{}
	}
	return out
}

func (c Collections) add(table string, r splash.Record) {
	c[table] = append(c[table], r)
}

// Counts is used for log fields.
func (c Collections) Counts() map[string]int {
	out := make(map[string]int, len(c))
	for k, v := range c {
		out[k] = len(v)
	}
	return out
}

// Rejection is a top-level record the flattener skipped.
type Rejection struct {
	ID     any
	Reason string
	Err    error
}

const (
	RejectInvalidID   = "invalid_id"
	RejectInvalidDate = "invalid_date"
	RejectOutOfWindow = "out_of_window"
)

// admit checks the id and date of a top-level record.
func admit(r splash.Record, dateFields []string, w syncwindow.Window) (int64, *Rejection) {
	id, ok := splash.Int(r["id"])
	if !ok {
		return 0, &Rejection{ID: r["id"], Reason: RejectInvalidID}
	}
	dt, err := splash.RecordDate(r, dateFields, w.Location())
	if err != nil {
		return 0, &Rejection{ID: id, Reason: RejectInvalidDate, Err: err}
	}
	if !w.Contains(dt) {
		return 0, &Rejection{ID: id, Reason: RejectOutOfWindow}
	}
	return id, nil
}

// objects returns the object items of a JSON array, skipping anything else.
func objects(v any) []splash.Record {
	list := splash.List(v)
	out := make([]splash.Record, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
