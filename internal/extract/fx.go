package extract

import (
	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/spyai-labs/etl-gcp-splash/internal/syncwindow"
	"go.uber.org/fx"
)

var Module = fx.Module("extract",
	fx.Provide(
		provideResolver,
		func(r *syncwindow.Resolver) WindowResolver { return r },
		func(f *splash.Fetcher) RecordFetcher { return f },
		New,
	),
)

func provideResolver(cfg config.Config, clk clock.Clock) (*syncwindow.Resolver, error) {
	wc, err := cfg.WindowConfig()
	if err != nil {
		return nil, err
	}
	return syncwindow.NewResolver(wc, clk), nil
}
