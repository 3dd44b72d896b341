package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/catalog"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/clock"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/events"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/kong"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/migration"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/notify"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/observability"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/okta"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/report/worker"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/server"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/signup"
	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/pkg/db"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return migration.RunMigrations(sqlDB)
		}),
		clock.Module,
		catalog.Module,

		kong.Module,
		okta.Module,
		notify.Module,
		events.Module,
		signup.Module,
		report.Module,
		worker.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
