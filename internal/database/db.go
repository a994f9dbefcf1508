package database

import (
	"fmt"
	"time"

	"fibra-backend/internal/config"
	"fibra-backend/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured database, migrates it and publishes it as DB.
func Init(cfg *config.Config) error {
	db, err := Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	config.GetLogger().WithField("driver", cfg.DBDriver).Info("database connected and migrated")
	return nil
}

// Open connects without migrating. Unique violations are translated to
// gorm.ErrDuplicatedKey for every driver.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// SQLite allows one writer; a single connection serializes transactions
		// instead of failing them with SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, err
		}
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Worker{},
		&models.Activity{},
		&models.Segment{},
		&models.ProductionEntry{},
		&models.Expense{},
		&models.PaymentStatement{},
		&models.StatementProductionLink{},
		&models.StatementExpenseLink{},
		&models.StatementSequence{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
