// Package db opens the service database connection.
package db

import (
	"context"

	"github.com/department-of-veterans-affairs/developer-portal-backend-sub000/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

// New opens Postgres when a DSN is configured, otherwise a local sqlite
// database for development.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	}

	var (
		conn *gorm.DB
		err  error
	)
	if cfg.DatabaseURL != "" {
		conn, err = gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	} else {
		log.Warn("DATABASE_URL not set, using local sqlite database")
		conn, err = gorm.Open(sqlite.Open("developer_portal.db"), gormCfg)
	}
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})
	return conn, nil
}
