package splash

import "go.uber.org/fx"

var Module = fx.Module("splash",
	fx.Provide(
		NewHTTPClient,
		NewRestyClient,
		NewTokenStore,
		NewAuthenticator,
		func(a *Authenticator) TokenProvider { return a },
		NewFetcher,
	),
)
