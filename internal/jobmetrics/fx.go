package jobmetrics

import "go.uber.org/fx"

var Module = fx.Module("jobmetrics",
	fx.Provide(NewPusher),
)
