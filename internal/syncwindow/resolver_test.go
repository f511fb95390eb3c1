package syncwindow

import (
	"errors"
	"testing"
	"time"

	_ "time/tzdata"

	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return loc
}

func newTestResolver(t *testing.T, start, end string) *Resolver {
	t.Helper()
	return NewResolver(Config{
		SourceLocation: mustLoad(t, "US/Eastern"),
		LocalLocation:  mustLoad(t, "Australia/Sydney"),
		Lookback: map[Entity]time.Duration{
			EntityEvent:        168 * time.Hour,
			EntityGroupContact: 24 * time.Hour,
		},
		StartDate: start,
		EndDate:   end,
	}, nil)
}

func TestResolveIncremental(t *testing.T) {
	r := newTestResolver(t, "", "")
	now := time.Date(2025, 5, 13, 12, 34, 56, 789_000_000, time.UTC)

	w, err := r.Resolve(ModeIncremental, EntityGroupContact, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	wantEnd := time.Date(2025, 5, 13, 8, 34, 56, 0, r.SourceLocation())
	if !w.End.Equal(wantEnd) {
		t.Fatalf("end = %s, want %s", w.End, wantEnd)
	}
	if w.End.Nanosecond() != 0 || w.Start.Nanosecond() != 0 {
		t.Fatalf("expected sub-second precision dropped: %s", w)
	}
	if got := w.End.Sub(w.Start); got != 24*time.Hour {
		t.Fatalf("window length = %s, want 24h", got)
	}
	if w.Start.Location().String() != "US/Eastern" {
		t.Fatalf("expected source location, got %s", w.Start.Location())
	}
}

func TestResolveIncrementalWindow(t *testing.T) {
	r := newTestResolver(t, "2025-05-10", "2025-05-13")
	w, err := r.Resolve(ModeIncrementalWindow, EntityEvent, time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	eastern := r.SourceLocation()
	wantStart := time.Date(2025, 5, 9, 10, 0, 0, 0, eastern)
	wantEnd := time.Date(2025, 5, 13, 9, 59, 59, 0, eastern)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Fatalf("window = %s, want [%s, %s]", w, wantStart, wantEnd)
	}
}

func TestResolveIncrementalWindowDefaultsEndToToday(t *testing.T) {
	r := newTestResolver(t, "2025-05-01", "")
	now := time.Date(2025, 5, 13, 20, 0, 0, 0, time.UTC) // 2025-05-14 06:00 Sydney
	w, err := r.Resolve(ModeIncrementalWindow, EntityEvent, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := time.Date(2025, 5, 14, 9, 59, 59, 0, r.SourceLocation())
	if !w.End.Equal(want) {
		t.Fatalf("end = %s, want %s", w.End, want)
	}
}

func TestResolveHistoricalFull(t *testing.T) {
	r := newTestResolver(t, "2024-01-01", "")
	now := time.Date(2025, 5, 13, 12, 0, 0, 0, time.UTC)
	w, err := r.Resolve(ModeHistoricalFull, EntityEvent, now)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	wantStart := time.Date(2022, 12, 31, 8, 0, 0, 0, r.SourceLocation())
	if !w.Start.Equal(wantStart) {
		t.Fatalf("start = %s, want %s", w.Start, wantStart)
	}
	if !w.End.Equal(now) {
		t.Fatalf("end = %s, want %s", w.End, now)
	}
}

func TestCurrentUsesClock(t *testing.T) {
	fake := clock.NewFakeClock(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC))
	r := NewResolver(Config{SourceLocation: time.UTC, LocalLocation: time.UTC}, fake)
	w, err := r.Current(ModeIncremental, EntityEvent)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if !w.End.Equal(fake.Now()) || w.End.Sub(w.Start) != DefaultLookback {
		t.Fatalf("unexpected window %s", w)
	}
}

func TestResolveRejectsNonPositiveLookback(t *testing.T) {
	r := NewResolver(Config{
		SourceLocation: time.UTC,
		LocalLocation:  time.UTC,
		Lookback:       map[Entity]time.Duration{EntityEvent: 0, EntityGroupContact: -time.Hour},
	}, nil)
	now := time.Date(2025, 5, 13, 12, 0, 0, 0, time.UTC)
	for _, entity := range []Entity{EntityEvent, EntityGroupContact} {
		if _, err := r.Resolve(ModeIncremental, entity, now); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("%s: expected ErrInvalidWindow, got %v", entity, err)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	now := time.Date(2025, 5, 13, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		start  string
		end    string
		mode   Mode
		entity Entity
		want   error
	}{
		{"unknown mode", "", "", Mode("weekly"), EntityEvent, ErrUnsupportedSyncMode},
		{"unknown entity", "", "", ModeIncremental, Entity("ticket"), ErrUnsupportedEntity},
		{"bad start date", "2025/05/10", "2025-05-13", ModeIncrementalWindow, EntityEvent, ErrInvalidDate},
		{"bad end date", "2025-05-10", "13-05-2025", ModeIncrementalWindow, EntityEvent, ErrInvalidDate},
		{"start after end", "2025-05-14", "2025-05-13", ModeIncrementalWindow, EntityEvent, ErrInvalidWindow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newTestResolver(t, tc.start, tc.end)
			if _, err := r.Resolve(tc.mode, tc.entity, now); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode(" Historical_Full")
	if err != nil || m != ModeHistoricalFull || !m.FullSync() {
		t.Fatalf("unexpected parse result %q %v", m, err)
	}
	if _, err := ParseMode("full"); !errors.Is(err, ErrUnsupportedSyncMode) {
		t.Fatalf("expected ErrUnsupportedSyncMode, got %v", err)
	}
}

func TestWindowContainsIsInclusive(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	w := Window{Start: start, End: end}
	if !w.Contains(start) || !w.Contains(end) {
		t.Fatal("expected bounds to be inside the window")
	}
	if w.Contains(end.Add(time.Microsecond)) || w.Contains(start.Add(-time.Microsecond)) {
		t.Fatal("expected outside points to be excluded")
	}
}
