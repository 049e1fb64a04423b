// Package database opens the gorm connection backing the record store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/moviecatalog/internal/config"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	mu sync.RWMutex
	db *gorm.DB
)

// Initialize opens the configured database and installs it as the process
// connection returned by GetDB.
func Initialize(cfg config.DatabaseConfig, log hclog.Logger) (*gorm.DB, error) {
	conn, err := Open(cfg, log)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	db = conn
	mu.Unlock()
	return conn, nil
}

// Open connects to sqlite or postgres and applies the pool settings.
func Open(cfg config.DatabaseConfig, log hclog.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "postgres":
		dialector = postgres.Open(PostgresDSN(cfg))
	case "sqlite":
		path, err := sqlitePath(cfg)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(path)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(cfg, log)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if cfg.Type == "sqlite" {
		// sqlite serializes writers; extra connections only produce SQLITE_BUSY
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(min(cfg.MaxIdleConns, max(maxOpen, 1)))
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	log.Info("database connected", "type", cfg.Type, "max_open_conns", maxOpen)
	return conn, nil
}

// PostgresDSN builds a keyword/value DSN, preferring an explicit URL.
func PostgresDSN(cfg config.DatabaseConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port)
}

func sqlitePath(cfg config.DatabaseConfig) (string, error) {
	path := cfg.DatabasePath
	if path == "" {
		path = filepath.Join(cfg.DataDir, "moviecatalog.db")
	}
	if path == ":memory:" {
		return path, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}

func newGormLogger(cfg config.DatabaseConfig, log hclog.Logger) gormlogger.Interface {
	level := gormlogger.Warn
	if cfg.LogQueries {
		level = gormlogger.Info
	}
	writer := log.Named("gorm").StandardLogger(&hclog.StandardLoggerOptions{InferLevels: true})
	return gormlogger.New(writer, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	mu.RLock()
	defer mu.RUnlock()
	return db
}

// HealthCheck pings the connection.
func HealthCheck(ctx context.Context, conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// ConnectionStats returns the pool statistics of conn.
func ConnectionStats(conn *gorm.DB) (sql.DBStats, error) {
	if conn == nil {
		return sql.DBStats{}, fmt.Errorf("database not initialized")
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}

// Close closes the process connection, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	db = nil
	return sqlDB.Close()
}
