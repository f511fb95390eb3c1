package config

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("config",
	fx.Provide(
		Load,
		provideFetchOverrides,
	),
)

func provideFetchOverrides(log *zap.Logger) (*FetchOverridesHolder, error) {
	return NewFetchOverridesHolder(log, DefaultSearchPaths...)
}
