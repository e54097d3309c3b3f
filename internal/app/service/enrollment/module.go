package enrollment

import "go.uber.org/fx"

// Module exposes the enrollment granter and its retry loop via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(runRetrier),
)
