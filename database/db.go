// Package database opens the relational store and keeps its schema current.
package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/prestamos-sa/prestamos/config"
	"github.com/prestamos-sa/prestamos/database/model"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func initModels(db *gorm.DB) error {
	models := []any{
		&model.User{},
		&model.Material{},
		&model.Loan{},
	}
	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("auto migrate %T: %w", m, err)
		}
	}
	return nil
}

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Type {
	case config.DatabaseTypeSQLite:
		if err := cfg.EnsureDirectoryExists(); err != nil {
			return nil, err
		}
		return sqlite.Open(cfg.GetDSN()), nil
	case config.DatabaseTypePostgreSQL:
		return postgres.Open(cfg.GetDSN()), nil
	case config.DatabaseTypeMySQL:
		return mysql.Open(cfg.GetDSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Open connects to the configured database and creates missing tables. The
// returned handle owns the connection pool and must be closed with Close.
func Open(cfg *config.DatabaseConfig, debug bool) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	var gormLogger logger.Interface
	if debug {
		gormLogger = logger.Default
	} else {
		gormLogger = logger.Discard
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.IsSQLite() {
		// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := initModels(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close releases the connection pool behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func IsForeignKeyViolation(err error) bool {
	return errors.Is(err, gorm.ErrForeignKeyViolated)
}
