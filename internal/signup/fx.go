package signup

import (
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/events"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/notify"
	signupdomain "github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/domain"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/service"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup/store"
	"go.uber.org/fx"
)

var Module = fx.Module("signup.service",
	fx.Provide(store.New),
	fx.Provide(func(r *store.Repository) signupdomain.Repository { return r }),
	fx.Provide(func(c *notify.SlackClient) service.ChannelSender { return c }),
	fx.Provide(func(c *notify.EmailClient) service.EmailSender { return c }),
	fx.Provide(func(o *events.Outbox) service.EventPublisher { return o }),
	fx.Provide(service.NewService),
)
