package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "time/tzdata"

	"go.uber.org/zap"
)

func validConfig() Config {
	return Config{
		SyncMode:       "incremental",
		SplashTimezone: "US/Eastern",
		LocalTimezone:  "Australia/Sydney",
		StartDate:      "2023-01-01",
		EventLookback:        168 * time.Hour,
		GroupContactLookback: 168 * time.Hour,
		Splash: SplashConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			Username:     "etl@example.com",
			Password:     "pw",
		},
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SYNC_MODE", "")
	t.Setenv("SPLASH_ETL_SOURCES", "")
	t.Setenv("SPLASH_RETRY_BACKOFF", "")
	t.Setenv("EVENT_LOOKBACK_HOURS", "")

	cfg := Load()
	if cfg.SyncMode != "incremental" {
		t.Fatalf("expected incremental sync mode, got %q", cfg.SyncMode)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0] != "event" || cfg.Sources[1] != "group_contact" {
		t.Fatalf("unexpected default sources %v", cfg.Sources)
	}
	if cfg.EventLookback != 168*time.Hour {
		t.Fatalf("expected 168h lookback, got %s", cfg.EventLookback)
	}
	if cfg.Splash.RetryTotal != 4 || cfg.Splash.RetryBackoff != time.Second {
		t.Fatalf("unexpected retry settings %+v", cfg.Splash)
	}
	if cfg.Splash.PageLimit != 250 || cfg.Splash.RateLimit != 2 {
		t.Fatalf("unexpected paging settings %+v", cfg.Splash)
	}
}

func TestLoadTelemetry(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	t.Setenv("ENVIRONMENT", "production")

	cfg := Load()
	want := TelemetryConfig{LogLevel: "debug", LogFormat: "json", Tracing: true, SampleRatio: 0.25}
	if cfg.Telemetry != want {
		t.Fatalf("telemetry = %+v, want %+v", cfg.Telemetry, want)
	}
	if !cfg.Debug() {
		t.Fatal("expected debug at debug level")
	}
	cfg.Telemetry.LogLevel = "info"
	if cfg.Debug() {
		t.Fatal("expected production at info level to be quiet")
	}
	cfg.Environment = "Local"
	if !cfg.Debug() {
		t.Fatal("expected local environment to be verbose")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SYNC_MODE", " Historical_Full ")
	t.Setenv("SPLASH_ETL_SOURCES", "group_contact, ,event")
	t.Setenv("SPLASH_RETRY_BACKOFF", "0.5")
	t.Setenv("GROUP_CONTACT_LOOKBACK_HOURS", "24")
	t.Setenv("BASE_URL", "https://splash.test/")

	cfg := Load()
	if cfg.SyncMode != "historical_full" {
		t.Fatalf("expected normalized sync mode, got %q", cfg.SyncMode)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0] != "group_contact" {
		t.Fatalf("unexpected sources %v", cfg.Sources)
	}
	if cfg.Splash.RetryBackoff != 500*time.Millisecond {
		t.Fatalf("expected 500ms backoff, got %s", cfg.Splash.RetryBackoff)
	}
	if cfg.GroupContactLookback != 24*time.Hour {
		t.Fatalf("expected 24h lookback, got %s", cfg.GroupContactLookback)
	}
	if cfg.Splash.BaseURL != "https://splash.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Splash.BaseURL)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad mode", mutate: func(c *Config) { c.SyncMode = "weekly" }, want: ErrInvalidSyncMode},
		{name: "bad timezone", mutate: func(c *Config) { c.LocalTimezone = "Mars/Base" }, want: ErrInvalidTimezone},
		{name: "bad date", mutate: func(c *Config) { c.EndDate = "2024/01/01" }, want: ErrInvalidDate},
		{name: "zero lookback", mutate: func(c *Config) { c.EventLookback = 0 }, want: ErrInvalidLookback},
		{name: "negative lookback", mutate: func(c *Config) { c.GroupContactLookback = -time.Hour }, want: ErrInvalidLookback},
		{name: "missing secret", mutate: func(c *Config) { c.Splash.Password = " " }, want: ErrMissingSecret},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.want == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestWindowConfig(t *testing.T) {
	cfg := validConfig()
	cfg.EventLookback = 2 * time.Hour
	wc, err := cfg.WindowConfig()
	if err != nil {
		t.Fatalf("window config: %v", err)
	}
	if wc.SourceLocation.String() != "US/Eastern" || wc.LocalLocation.String() != "Australia/Sydney" {
		t.Fatalf("unexpected locations %s %s", wc.SourceLocation, wc.LocalLocation)
	}
	if len(wc.Lookback) != 2 {
		t.Fatalf("expected lookback per entity, got %v", wc.Lookback)
	}
}

func TestFetchOverridesMissingFile(t *testing.T) {
	holder, err := NewFetchOverridesHolder(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	if got := holder.Get("event"); got.Limit != 0 || got.PageStop != 0 || got.Sort != "" {
		t.Fatalf("expected empty override, got %+v", got)
	}
}

func TestFetchOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`entities:
  event:
    limit: 50
    page_stop: -1
  group_contact:
    sort: created DESC
    view_groups: [bounceInfo]
`)
	if err := os.WriteFile(filepath.Join(dir, "splashetl.yml"), content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	holder, err := NewFetchOverridesHolder(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("holder: %v", err)
	}
	event := holder.Get("event")
	if event.Limit != 50 || event.PageStop != -1 {
		t.Fatalf("unexpected event override %+v", event)
	}
	gc := holder.Get("group_contact")
	if gc.Sort != "created DESC" || len(gc.ViewGroups) != 1 || gc.ViewGroups[0] != "bounceInfo" {
		t.Fatalf("unexpected group contact override %+v", gc)
	}
}

func TestFetchOverridesRejectsNegativeLimit(t *testing.T) {
	dir := t.TempDir()
	content := []byte("entities:\n  event:\n    limit: -5\n")
	if err := os.WriteFile(filepath.Join(dir, "splashetl.yml"), content, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFetchOverridesHolder(zap.NewNop(), dir); !errors.Is(err, ErrInvalidOverride) {
		t.Fatalf("expected ErrInvalidOverride, got %v", err)
	}
}
