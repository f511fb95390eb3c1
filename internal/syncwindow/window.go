// Package syncwindow turns a sync mode and entity into the date window a run extracts.
package syncwindow

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Mode string

const (
	ModeIncremental       Mode = "incremental"
	ModeIncrementalWindow Mode = "incremental_window"
	ModeHistoricalFull    Mode = "historical_full"
)

// Entity names the lookback bucket a source draws from.
type Entity string

const (
	EntityEvent        Entity = "event"
	EntityGroupContact Entity = "groupcontact"
)

const (
	DateLayout          = "2006-01-02"
	HistoricalStartDate = "2023-01-01"
	DefaultLookback     = 168 * time.Hour
)

var (
	ErrUnsupportedSyncMode = errors.New("unsupported_sync_mode")
	ErrUnsupportedEntity   = errors.New("unsupported_entity")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidWindow       = errors.New("invalid_window")
)

func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeIncremental, ModeIncrementalWindow, ModeHistoricalFull:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSyncMode, raw)
	}
}

func (m Mode) FullSync() bool {
	return m == ModeHistoricalFull
}

func ParseEntity(raw string) (Entity, error) {
	switch e := Entity(strings.ToLower(strings.TrimSpace(raw))); e {
	case EntityEvent, EntityGroupContact:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedEntity, raw)
	}
}

// Window is an inclusive time range in the source timezone.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) Location() *time.Location {
	if w.Start.IsZero() {
		return time.UTC
	}
	return w.Start.Location()
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
