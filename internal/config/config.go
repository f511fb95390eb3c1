package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
)

var (
	ErrInvalidSyncMode = errors.New("invalid_sync_mode")
	ErrInvalidTimezone = errors.New("invalid_timezone")
	ErrMissingSecret   = errors.New("missing_secret")
	ErrInvalidDate     = errors.New("invalid_date")
	ErrInvalidLookback = errors.New("invalid_lookback")
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	SyncMode string
	Sources  []string

	SplashTimezone       string
	LocalTimezone        string
	EventLookback        time.Duration
	GroupContactLookback time.Duration
	StartDate            string
	EndDate              string

	Splash SplashConfig
	Redis  RedisConfig
	Loader LoaderConfig

	OTLPEndpoint string
	Telemetry    TelemetryConfig
	Metrics      MetricsConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	HTTPAddr  string
	LogBucket string
}

type SplashConfig struct {
	BaseURL           string
	ClientID          string
	ClientSecret      string
	Username          string
	Password          string
	Timeout           time.Duration
	VerifyCert        bool
	HTTPSProxy        string
	RateLimit         float64
	RetryTotal        int
	RetryBackoff      time.Duration
	PageLimit         int
	MaxRateLimitWaits int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoaderConfig names staging tables and sizes inserts into them.
type LoaderConfig struct {
	StagingPrefix string
	StagingSuffix string
	BatchSize     int
}

// TelemetryConfig tunes logging and OTLP export.
type TelemetryConfig struct {
	LogLevel    string
	LogFormat   string
	Tracing     bool
	SampleRatio float64
}

// MetricsConfig selects where job metrics are pushed once a run finishes.
type MetricsConfig struct {
	Enabled   bool
	Exporter  string
	Endpoint  string
	AuthToken string
}

const (
	defaultStartDate = "2023-01-01"
	dateLayout       = "2006-01-02"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:              getenv("APP_SERVICE", "splashetl"),
		AppVersion:           getenv("APP_VERSION", "0.1.0"),
		Environment:          getenv("ENVIRONMENT", "development"),
		SyncMode:             strings.ToLower(strings.TrimSpace(getenv("SYNC_MODE", string(syncwindow.ModeIncremental)))),
		Sources:              ParseList(getenv("SPLASH_ETL_SOURCES", "event,group_contact")),
		SplashTimezone:       getenv("SPLASH_TIMEZONE", "US/Eastern"),
		LocalTimezone:        getenv("LOCAL_TIMEZONE", "Australia/Sydney"),
		EventLookback:        time.Duration(getenvInt("EVENT_LOOKBACK_HOURS", 168)) * time.Hour,
		GroupContactLookback: time.Duration(getenvInt("GROUP_CONTACT_LOOKBACK_HOURS", 168)) * time.Hour,
		StartDate:            strings.TrimSpace(getenv("START_DATE", defaultStartDate)),
		EndDate:              strings.TrimSpace(getenv("END_DATE", "")),
		Splash: SplashConfig{
			BaseURL:           strings.TrimRight(getenv("BASE_URL", "https://api.splashthat.com"), "/"),
			ClientID:          strings.TrimSpace(getenv("CLIENT_ID", "")),
			ClientSecret:      strings.TrimSpace(getenv("CLIENT_SECRET", "")),
			Username:          strings.TrimSpace(getenv("USERNAME", "")),
			Password:          getenv("PASSWORD", ""),
			Timeout:           getenvDuration("REQUEST_TIMEOUT", 10*time.Second),
			VerifyCert:        getenvBool("VERIFY_CERT", true),
			HTTPSProxy:        strings.TrimSpace(getenv("HTTPS_PROXY", "")),
			RateLimit:         getenvFloat("SPLASH_RATE_LIMIT", 2),
			RetryTotal:        getenvInt("SPLASH_RETRY_TOTAL", 4),
			RetryBackoff:      getenvDuration("SPLASH_RETRY_BACKOFF", time.Second),
			PageLimit:         getenvInt("SPLASH_PAGE_LIMIT", 250),
			MaxRateLimitWaits: getenvInt("SPLASH_MAX_RATE_LIMIT_WAITS", 5),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Loader: LoaderConfig{
			StagingPrefix: getenv("STAGING_PREFIX", "_stg_"),
			StagingSuffix: os.Getenv("STAGING_SUFFIX"),
			BatchSize:     getenvInt("LOADER_BATCH_SIZE", 500),
		},
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Telemetry: TelemetryConfig{
			LogLevel:    strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
			LogFormat:   strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
			Tracing:     getenvBool("OTEL_ENABLED", false),
			SampleRatio: getenvFloat("OTEL_SAMPLING_RATIO", 1),
		},
		Metrics: MetricsConfig{
			Enabled:   getenvBool("METRICS_ENABLED", true),
			Exporter:  strings.ToLower(getenv("METRICS_EXPORTER", "")),
			Endpoint:  strings.TrimSpace(getenv("METRICS_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("METRICS_AUTH_TOKEN", "")),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "splash"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 10),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		LogBucket:         strings.TrimSpace(getenv("LOG_BUCKET", "")),
	}

	return cfg
}

// Debug reports whether verbose logging applies: debug level or a development environment.
func (c Config) Debug() bool {
	if c.Telemetry.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

// Validate fails fast on settings a run cannot recover from.
// Source names are checked where the extractor families are registered.
func (c Config) Validate() error {
	if _, err := syncwindow.ParseMode(c.SyncMode); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidSyncMode, c.SyncMode)
	}
	for _, name := range []string{c.SplashTimezone, c.LocalTimezone} {
		if _, err := time.LoadLocation(name); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
		}
	}
	for _, date := range []string{c.StartDate, c.EndDate} {
		if date == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, date); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
	}
	if c.EventLookback <= 0 || c.GroupContactLookback <= 0 {
		return fmt.Errorf("%w: event %s, group contact %s", ErrInvalidLookback, c.EventLookback, c.GroupContactLookback)
	}

	var missing []string
	secrets := []struct {
		key   string
		value string
	}{
		{"CLIENT_ID", c.Splash.ClientID},
		{"CLIENT_SECRET", c.Splash.ClientSecret},
		{"USERNAME", c.Splash.Username},
		{"PASSWORD", c.Splash.Password},
	}
	for _, s := range secrets {
		if strings.TrimSpace(s.value) == "" {
			missing = append(missing, s.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSecret, strings.Join(missing, ", "))
	}
	return nil
}

// WindowConfig builds the resolver settings. Locations must already be valid.
func (c Config) WindowConfig() (syncwindow.Config, error) {
	source, err := time.LoadLocation(c.SplashTimezone)
	if err != nil {
		return syncwindow.Config{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.SplashTimezone)
	}
	local, err := time.LoadLocation(c.LocalTimezone)
	if err != nil {
		return syncwindow.Config{}, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.LocalTimezone)
	}
	return syncwindow.Config{
		SourceLocation: source,
		LocalLocation:  local,
		Lookback: map[syncwindow.Entity]time.Duration{
			syncwindow.EntityEvent:        c.EventLookback,
			syncwindow.EntityGroupContact: c.GroupContactLookback,
		},
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
	}, nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// ParseList splits a comma separated value, dropping blanks.
func ParseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// getenvDuration accepts Go durations ("10s") or plain seconds ("10", "0.5").
func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return time.Duration(seconds * float64(time.Second))
}
