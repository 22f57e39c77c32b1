// Package db opens the database used by the db configuration store.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/config"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/db/dsn"
	"github.com/GoFMG-Admin/GoFMG-Admin/internal/db/models"
)

// Open connects to the configured engine and migrates the schema.
func Open(cfg *config.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Engine {
	case config.DBEngineMySQL:
		dialector = gormmysql.Open(dsn.Create(cfg))
	case config.DBEnginePostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case config.DBEngineSQLite:
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDBEngine, cfg.Engine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Engine == config.DBEngineSQLite {
		// sqlite allows a single writer
		sqlDB, errDB := db.DB()
		if errDB != nil {
			return nil, fmt.Errorf("failed to access database pool: %w", errDB)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if err = db.AutoMigrate(&models.Setting{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}
