package report

import (
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/service"
	"go.uber.org/fx"
)

var Module = fx.Module("report.service",
	fx.Provide(service.New),
)
