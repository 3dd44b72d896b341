package kong

import "go.uber.org/fx"

var Module = fx.Module("kong.client",
	fx.Provide(NewHTTPClient),
	fx.Provide(func(c *HTTPClient) Client { return c }),
)
