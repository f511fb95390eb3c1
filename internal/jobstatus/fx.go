package jobstatus

import "go.uber.org/fx"

var Module = fx.Module("jobstatus",
	fx.Provide(NewRepository),
	fx.Provide(New),
)
