package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// FetchTuning is the per-entity paging setup. Zero values mean "keep the built-in default";
// a PageStop of -1 disables the page cap.
type FetchTuning struct {
	Limit      int      `mapstructure:"limit"`
	PageStop   int      `mapstructure:"page_stop"`
	Sort       string   `mapstructure:"sort"`
	ViewGroups []string `mapstructure:"view_groups"`
}

type FetchOverrides map[string]FetchTuning

var DefaultSearchPaths = []string{
	"/etc/splashetl",
	".",
}

var ErrInvalidOverride = errors.New("invalid_fetch_override")

type FetchOverridesHolder struct {
	current atomic.Value // holds FetchOverrides
}

// NewFetchOverridesHolder reads splashetl.yml from the first search path that has one.
// A missing file yields empty overrides. When a file exists it is watched for changes.
func NewFetchOverridesHolder(log *zap.Logger, searchPaths ...string) (*FetchOverridesHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config").With(zap.String("component", "fetch_overrides"))

	v := viper.New()
	v.SetConfigName("splashetl")
	v.SetConfigType("yml")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("SPLASHETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	holder := &FetchOverridesHolder{}

	found := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		found = false
	}

	cfg, err := decodeOverrides(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	if !found {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeOverrides(v)
		if err != nil {
			log.Warn("config.fetch_overrides.reload_failed", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("config.fetch_overrides.reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// Get returns the override for an entity, or a zero FetchTuning.
func (h *FetchOverridesHolder) Get(entity string) FetchTuning {
	if h == nil {
		return FetchTuning{}
	}
	all, _ := h.current.Load().(FetchOverrides)
	return all[entity]
}

func decodeOverrides(v *viper.Viper) (FetchOverrides, error) {
	out := FetchOverrides{}
	if err := v.UnmarshalKey("entities", &out); err != nil {
		return nil, err
	}
	for name, tuning := range out {
		if err := validateTuning(tuning); err != nil {
			return nil, fmt.Errorf("entities.%s: %w", name, err)
		}
	}
	return out, nil
}

func validateTuning(t FetchTuning) error {
	if t.Limit < 0 {
		return fmt.Errorf("%w: limit %d", ErrInvalidOverride, t.Limit)
	}
	if t.PageStop < -1 {
		return fmt.Errorf("%w: page_stop %d", ErrInvalidOverride, t.PageStop)
	}
	return nil
}
