/*
 * Database Adapter
 *
 * This package is responsible for establishing and configuring the connection
 * to the configured database using GORM, selecting a dialect driver at
 * runtime, and handling schema auto-migration.
 */
package db

import (
	"fmt"
	"time"

	"github.com/dvdyellow/server/internal/config"
	"github.com/dvdyellow/server/internal/core/domain"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitializeDatabase opens and configures a GORM DB instance per cfg.Driver
// ("sqlite" the default, or "postgres"), then migrates the schema.
func InitializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := gdb.AutoMigrate(&domain.User{}, &domain.Pawn{}, &domain.Board{}, &domain.GameResult{}); err != nil {
		return nil, fmt.Errorf("database schema migration failed: %w", err)
	}

	return gdb, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		path := cfg.Name
		if path == "" {
			path = "server.db"
		}
		return sqlite.Open(path), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC %s",
			cfg.Host, cfg.Username, cfg.Password, cfg.Name, cfg.Port, cfg.Options)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", cfg.Driver)
	}
}
