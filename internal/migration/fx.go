package migration

import (
	"github.com/spyai-labs/etl-gcp-splash/internal/config"
	"github.com/spyai-labs/etl-gcp-splash/internal/jobstatus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)

// Apply runs the versioned migrations on PostgreSQL. Other dialects get the status
// table through gorm AutoMigrate.
func Apply(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if cfg.DBType != "postgres" {
		log.Info("migration.automigrate", zap.String("db_type", cfg.DBType))
		return conn.AutoMigrate(&jobstatus.Record{})
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	if err := RunMigrations(sqlDB); err != nil {
		return err
	}
	log.Info("migration.applied", zap.String("db_type", cfg.DBType))
	return nil
}
