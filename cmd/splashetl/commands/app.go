package commands

import (
	"github.com/bwmarrin/snowflake"
	"github.com/spyai-labs/etl-gcp-splash/internal/clock"
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/extract"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobmetrics"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	"github.com/spyai-labs/etl-gcp-splash/internal/loader"
	"github.com/spyai-labs/etl-gcp-splash/internal/migration"
	"github.com/spyai-labs/etl-gcp-splash/internal/observability"
	"github.com/spyai-labs/etl-gcp-splash/internal/pipeline"
	"github.com/spyai-labs/etl-gcp-splash/internal/ratelimit"
	"github.com/spyai-labs/etl-gcp-splash/internal/splash"
	"github.com/spyai-labs/etl-gcp-splash/internal/transform"
	"github.com/spyai-labs/etl-gcp-splash/pkg/db"
	"go.uber.org/fx"
)

// pipelineModules wires everything a run needs.
func pipelineModules() fx.Option {
	return fx.Options(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		ratelimit.Module,
		fx.Invoke(validateConfig),

		// ETL
		splash.Module,
		extract.Module,
		transform.Module,
		loader.Module,
		jobstatus.Module,
		jobmetrics.Module,
		pipeline.Module,
	)
}

func validateConfig(cfg config.Config) error {
	return cfg.Validate()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
