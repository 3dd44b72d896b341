package okta

import (
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides a Client only when the deployment configures Okta; the
// signup workflow treats a missing client as "skip the OAuth step".
var Module = fx.Module("okta.client",
	fx.Provide(func(cfg config.Config, log *zap.Logger) Client {
		if !cfg.OktaEnabled() {
			log.Warn("okta not configured, oauth provisioning disabled")
			return nil
		}
		return NewHTTPClient(cfg, log)
	}),
)
