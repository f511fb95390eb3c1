package transform

import "go.uber.org/fx"

var Module = fx.Module("transform",
	fx.Provide(New),
)
