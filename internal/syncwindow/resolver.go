package syncwindow

import (
	"fmt"
	"strings"
	"time"

	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
)

type Config struct {
	SourceLocation *time.Location
	LocalLocation  *time.Location
	Lookback       map[Entity]time.Duration
	// StartDate and EndDate are local calendar dates (YYYY-MM-DD) for incremental_window.
	// An empty EndDate means today in the local timezone.
	StartDate string
	EndDate   string
}

type Resolver struct {
	cfg   Config
	clock clock.Clock
}

func NewResolver(cfg Config, clk clock.Clock) *Resolver {
	if cfg.SourceLocation == nil {
		cfg.SourceLocation = time.UTC
	}
	if cfg.LocalLocation == nil {
		cfg.LocalLocation = time.UTC
	}
	if strings.TrimSpace(cfg.StartDate) == "" {
		cfg.StartDate = HistoricalStartDate
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Resolver{cfg: cfg, clock: clk}
}

func (r *Resolver) SourceLocation() *time.Location { return r.cfg.SourceLocation }

func (r *Resolver) LocalLocation() *time.Location { return r.cfg.LocalLocation }

// Current resolves against the resolver's clock.
func (r *Resolver) Current(mode Mode, entity Entity) (Window, error) {
	return r.Resolve(mode, entity, r.clock.Now())
}

func (r *Resolver) Resolve(mode Mode, entity Entity, now time.Time) (Window, error) {
	if _, err := ParseEntity(string(entity)); err != nil {
		return Window{}, err
	}

	nowSrc := now.In(r.cfg.SourceLocation)

	var (
		start, end time.Time
		err        error
	)
	switch mode {
	case ModeIncremental:
		lookback, ok := r.cfg.Lookback[entity]
		if !ok {
			lookback = DefaultLookback
		}
		if lookback <= 0 {
			return Window{}, fmt.Errorf("%w: lookback %s for %s", ErrInvalidWindow, lookback, entity)
		}
		start = nowSrc.Add(-lookback)
		end = nowSrc
	case ModeIncrementalWindow:
		start, err = r.localDate(r.cfg.StartDate, false)
		if err != nil {
			return Window{}, err
		}
		endDate := strings.TrimSpace(r.cfg.EndDate)
		if endDate == "" {
			endDate = now.In(r.cfg.LocalLocation).Format(DateLayout)
		}
		end, err = r.localDate(endDate, true)
		if err != nil {
			return Window{}, err
		}
	case ModeHistoricalFull:
		start, err = r.localDate(HistoricalStartDate, false)
		if err != nil {
			return Window{}, err
		}
		end = nowSrc
	default:
		return Window{}, fmt.Errorf("%w: %q", ErrUnsupportedSyncMode, mode)
	}

	w := Window{
		Start: start.Truncate(time.Second),
		End:   end.Truncate(time.Second),
	}
	if w.Start.After(w.End) {
		return Window{}, fmt.Errorf("%w: start %s after end %s", ErrInvalidWindow, w.Start, w.End)
	}
	return w, nil
}

// localDate reads a local calendar date and returns its first (or last) second in the source timezone.
func (r *Resolver) localDate(raw string, dayEnd bool) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(raw), r.cfg.LocalLocation)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, raw)
	}
	if dayEnd {
		d = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, r.cfg.LocalLocation)
	}
	return d.In(r.cfg.SourceLocation), nil
}
