// Package db opens the connection pool the repository draws connections
// from and bootstraps the books schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/snnyvrz/shelfshare-books/internal/config"
	"github.com/snnyvrz/shelfshare-books/internal/model"
)

const pingTimeout = 5 * time.Second

// Database bundles the gorm handle used for bootstrap and the *sql.DB pool
// the repository acquires connections from.
type Database struct {
	Gorm *gorm.DB
	SQL  *sql.DB
	log  zerolog.Logger
}

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	dsn := cfg.DSN()
	switch cfg.DB.Driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DB.Driver)
}

// Open connects to the configured database, retrying up to
// cfg.DB.ConnectAttempts times while the server is not reachable yet.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Database, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	attempts := cfg.DB.ConnectAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; ; attempt++ {
		var d *Database
		d, err = connect(ctx, dial, log)
		if err == nil {
			d.configurePool(cfg.DB)
			log.Info().Str("driver", cfg.DB.Driver).Int("attempt", attempt).Msg("connected to the database")
			return d, nil
		}
		if attempt >= attempts {
			break
		}

		log.Warn().Err(err).Int("attempt", attempt).Int("max_attempts", attempts).Msg("database not ready")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(cfg.DB.ConnectDelay):
		}
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
}

func connect(ctx context.Context, dial gorm.Dialector, log zerolog.Logger) (*Database, error) {
	gdb, err := gorm.Open(dial, &gorm.Config{
		Logger: gormlogger.Discard,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	return &Database{Gorm: gdb, SQL: sqlDB, log: log}, nil
}

func (d *Database) configurePool(cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		d.SQL.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		d.SQL.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		d.SQL.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
}

// Migrate creates or updates the books table.
func (d *Database) Migrate(ctx context.Context) error {
	if err := d.Gorm.WithContext(ctx).AutoMigrate(&model.Book{}); err != nil {
		return fmt.Errorf("migrate books schema: %w", err)
	}
	d.log.Info().Msg("books schema up to date")
	return nil
}

// Ping checks that the pool can still reach the database.
func (d *Database) Ping(ctx context.Context) error {
	return d.SQL.PingContext(ctx)
}

func (d *Database) Close() error {
	d.log.Info().Msg("closing database connection pool")
	return d.SQL.Close()
}
