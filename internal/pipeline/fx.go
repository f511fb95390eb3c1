package pipeline

import (
	"github.com/spyai-labs/etl-gcp-splash/internal/extract"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	"github.com/spyai-labs/etl-gcp-splash/internal/loader"
	"github.com/spyai-labs/etl-gcp-splash/internal/ratelimit"
	"github.com/spyai-labs/etl-gcp-splash/internal/transform"
	"go.uber.org/fx"
)

var Module = fx.Module("pipeline",
	fx.Provide(
		func(s *extract.Service) Extractor { return s },
		func(s *transform.Service) Transformer { return s },
		func(l *loader.Loader) Loader { return l },
		func(s *jobstatus.Service) StatusStore { return s },
		func(l *ratelimit.Locker) RunLocker { return l },
		New,
	),
)
